package histogram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCounter_SeedsKeysAtZero(t *testing.T) {
	c := NewCounter("up", "down", "stay", "up")

	assert.Equal(t, []string{"up", "down", "stay"}, c.Keys())
	assert.Equal(t, 0, c.Get("down"))
	assert.True(t, c.Has("stay"))
	assert.False(t, c.Has("sideways"))
	assert.Equal(t, 0, c.Total())
}

func TestCounter_IncAndAdd(t *testing.T) {
	c := NewCounter("even", "odd")
	c.Inc("odd")
	c.Inc("odd")
	c.Add("even", 3)
	c.Add("-1", 2)

	assert.Equal(t, 3, c.Get("even"))
	assert.Equal(t, 2, c.Get("odd"))
	assert.Equal(t, 2, c.Get("-1"))
	assert.Equal(t, 0, c.Get("missing"))
	assert.Equal(t, []string{"even", "odd", "-1"}, c.Keys())
	assert.Equal(t, 7, c.Total())
	assert.Equal(t, 3, c.Len())
}

func TestCounter_Merge(t *testing.T) {
	a := NewCounter("up", "down")
	a.Inc("up")

	b := NewCounter("stay")
	b.Add("stay", 2)
	b.Add("up", 4)

	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, []string{"up", "down", "stay"}, a.Keys())
	assert.Equal(t, map[string]int{"up": 5, "down": 0, "stay": 2}, a.Map())
}

func TestCounter_Clone(t *testing.T) {
	a := NewCounter("x")
	a.Inc("x")
	b := a.Clone()
	b.Inc("x")

	assert.Equal(t, 1, a.Get("x"))
	assert.Equal(t, 2, b.Get("x"))
}

func TestCounter_MarshalJSON_PreservesOrder(t *testing.T) {
	c := NewCounter("up", "down", "stay")
	c.Inc("stay")
	c.Add("1", 2)
	c.Add("-1", 2)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"up":0,"down":0,"stay":1,"1":2,"-1":2}`, string(data))

	empty, err := json.Marshal(NewCounter())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}
