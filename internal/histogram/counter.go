// Package histogram provides insertion-ordered counters for the analysis
// summaries. Known keys can be pre-seeded at zero so they are always present
// in the output, and new keys keep the order in which they were first seen.
package histogram

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/elliotchance/orderedmap/v2"
)

// Counter is an ordered string -> int tally.
// The zero value is not usable; construct with NewCounter.
type Counter struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewCounter creates a Counter with the given keys initialised to zero.
func NewCounter(keys ...string) *Counter {
	c := &Counter{m: orderedmap.NewOrderedMap[string, int]()}
	for _, k := range keys {
		if _, ok := c.m.Get(k); !ok {
			c.m.Set(k, 0)
		}
	}
	return c
}

// Inc adds one to key.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Add adds n to key, inserting it at the end if it is new.
func (c *Counter) Add(key string, n int) {
	current, _ := c.m.Get(key)
	c.m.Set(key, current+n)
}

// Get returns the count for key, zero when absent.
func (c *Counter) Get(key string) int {
	v, _ := c.m.Get(key)
	return v
}

// Has reports whether key is present (including zero-valued seeds).
func (c *Counter) Has(key string) bool {
	_, ok := c.m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (c *Counter) Keys() []string {
	return c.m.Keys()
}

// Len returns the number of keys.
func (c *Counter) Len() int {
	return c.m.Len()
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for el := c.m.Front(); el != nil; el = el.Next() {
		total += el.Value
	}
	return total
}

// Merge adds every count of other into c. Keys unknown to c are appended in
// other's order.
func (c *Counter) Merge(other *Counter) {
	if other == nil {
		return
	}
	for el := other.m.Front(); el != nil; el = el.Next() {
		c.Add(el.Key, el.Value)
	}
}

// Clone returns an independent copy of c.
func (c *Counter) Clone() *Counter {
	out := NewCounter()
	out.Merge(c)
	return out
}

// Map returns the counts as a plain map. Ordering is lost.
func (c *Counter) Map() map[string]int {
	out := make(map[string]int, c.m.Len())
	for el := c.m.Front(); el != nil; el = el.Next() {
		out[el.Key] = el.Value
	}
	return out
}

// MarshalJSON encodes the counter as a JSON object preserving key order.
func (c *Counter) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for el := c.m.Front(); el != nil; el = el.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(el.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
