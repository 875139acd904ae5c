// Package pipeline runs a full pealscope analysis: it parses peal files,
// analyses every sequence concurrently, aggregates permutation families and
// attaches the symmetric group catalog for every stage seen.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/pealscope/internal/config"
	"github.com/dbsmedya/pealscope/internal/family"
	"github.com/dbsmedya/pealscope/internal/logger"
	"github.com/dbsmedya/pealscope/internal/peal"
	"github.com/dbsmedya/pealscope/internal/sequence"
	"github.com/dbsmedya/pealscope/internal/symgroup"
)

// StructureFamily labels every structure in the change-ringing library.
const StructureFamily = "plain_changes"

// Structure is one analysed peal as it appears in the change-ringing library.
type Structure struct {
	ID          string                      `json:"id"`
	Family      string                      `json:"family"`
	Title       string                      `json:"title"`
	Stage       int                         `json:"stage"`
	Rows        int                         `json:"rows"`
	HuntBells   *int                        `json:"huntBells"`
	SourceFile  string                      `json:"sourceFile"`
	Metadata    peal.Metadata               `json:"metadata"`
	RowsDetail  []sequence.RowDetail        `json:"rowsDetail"`
	Transitions []sequence.TransitionDetail `json:"transitions"`
	Summary     sequence.Summary            `json:"summary"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

// Rejection records a sequence that was left out of the run.
type Rejection struct {
	ID         string `json:"id,omitempty"`
	SourceFile string `json:"sourceFile"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

// Result contains the output and statistics of one run.
type Result struct {
	RunID         string
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	Structures    []Structure
	Families      []family.Family
	Catalog       []*symgroup.Entry
	SkippedStages []int
	Rejected      []Rejection
}

// Options controls a run.
type Options struct {
	Workers         int
	Strict          bool
	MaxStage        int
	SamplesPerCycle int
}

// OptionsFromConfig maps the analysis section of the configuration.
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		Workers:         cfg.Workers,
		Strict:          cfg.Strict,
		MaxStage:        cfg.MaxStage,
		SamplesPerCycle: cfg.SamplesPerCycle,
	}
}

// Orchestrator coordinates parsing, analysis, aggregation and cataloguing.
// The symmetric group cache is kept across runs.
type Orchestrator struct {
	opts   Options
	cache  *symgroup.Cache
	logger *logger.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger selects the default.
func NewOrchestrator(opts Options, log *logger.Logger) (*Orchestrator, error) {
	if opts.Workers < 0 {
		return nil, fmt.Errorf("workers cannot be negative: %d", opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.NewDefault()
	}

	cache := symgroup.NewCache(symgroup.Options{
		MaxStage:        opts.MaxStage,
		SamplesPerCycle: opts.SamplesPerCycle,
	})
	// Report the effective limits
	opts.MaxStage = cache.Options().MaxStage
	opts.SamplesPerCycle = cache.Options().SamplesPerCycle

	return &Orchestrator{
		opts:   opts,
		cache:  cache,
		logger: log,
	}, nil
}

// Options returns the effective run options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// unit is one input of a run.
type unit struct {
	source string
	load   func() (*peal.Peal, error)
}

// outcome is the per-unit result, stored at the unit's index.
type outcome struct {
	peal     *peal.Peal
	analysis *sequence.Analysis
	err      error
}

// Run parses and analyses the peal files at paths.
func (o *Orchestrator) Run(ctx context.Context, paths []string) (*Result, error) {
	units := make([]unit, len(paths))
	for i, path := range paths {
		units[i] = unit{source: path, load: func() (*peal.Peal, error) { return peal.ParseFile(path) }}
	}
	return o.run(ctx, units)
}

// RunPeals analyses peals that were already parsed.
func (o *Orchestrator) RunPeals(ctx context.Context, peals []*peal.Peal) (*Result, error) {
	units := make([]unit, len(peals))
	for i, p := range peals {
		if p == nil {
			return nil, fmt.Errorf("peal %d is nil", i)
		}
		units[i] = unit{source: p.Source, load: func() (*peal.Peal, error) { return p, nil }}
	}
	return o.run(ctx, units)
}

func (o *Orchestrator) run(ctx context.Context, units []unit) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := o.logger.WithRun(result.RunID)

	log.Infow("Starting analysis run",
		"sequences", len(units),
		"workers", o.opts.Workers,
		"strict", o.opts.Strict,
		"max_stage", o.opts.MaxStage,
	)

	outcomes, err := o.analyseAll(ctx, units, log)
	if err != nil {
		return nil, err
	}

	if err := o.aggregate(result, units, outcomes, log); err != nil {
		return nil, err
	}

	if err := o.catalog(ctx, result, log); err != nil {
		return nil, err
	}

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	log.Infow("Analysis run completed",
		"structures", len(result.Structures),
		"families", len(result.Families),
		"catalog_stages", len(result.Catalog),
		"skipped_stages", result.SkippedStages,
		"rejected", len(result.Rejected),
		"duration", result.Duration,
	)

	return result, nil
}

// analyseAll parses and analyses every unit on a bounded worker pool.
// Outcomes keep input order. In strict mode the first failure aborts.
func (o *Orchestrator) analyseAll(ctx context.Context, units []unit, log *logger.Logger) ([]outcome, error) {
	outcomes := make([]outcome, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for i := range units {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := analyseUnit(units[i])
			if out.err != nil {
				if o.opts.Strict {
					return fmt.Errorf("strict mode: %w", out.err)
				}
				log.Warnw("Rejected sequence",
					"source", units[i].source,
					"error", out.err,
				)
			} else {
				seqLog := log.WithSequence(out.analysis.ID)
				if len(out.peal.Warnings) > 0 {
					seqLog.WithFields(map[string]interface{}{
						"source":   units[i].source,
						"warnings": out.peal.Warnings,
					}).Warnw("Peal file has warnings")
				}
				seqLog.Debugw("Analysed sequence",
					"stage", out.analysis.Stage,
					"rows", len(out.analysis.Rows),
					"unique_permutations", len(out.analysis.Summary.UniquePositionPermutations),
				)
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancelled parent context may stop the loop before any worker fails
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func analyseUnit(u unit) outcome {
	p, err := u.load()
	if err != nil {
		return outcome{err: err}
	}
	a, err := sequence.Analyze(p.ID, p.Permutations)
	if err != nil {
		return outcome{peal: p, err: err}
	}
	return outcome{peal: p, analysis: a}
}

// aggregate folds surviving sequences into families in input order.
func (o *Orchestrator) aggregate(result *Result, units []unit, outcomes []outcome, log *logger.Logger) error {
	agg := family.NewAggregator()

	for i, out := range outcomes {
		if out.err == nil {
			out.err = agg.Add(family.ContributionFrom(out.analysis))
			if out.err != nil && o.opts.Strict {
				return fmt.Errorf("strict mode: %w", out.err)
			}
		}
		if out.err != nil {
			rej := Rejection{
				SourceFile: units[i].source,
				Reason:     out.err.Error(),
				Err:        out.err,
			}
			if out.peal != nil {
				rej.ID = out.peal.ID
			}
			result.Rejected = append(result.Rejected, rej)
			continue
		}
		result.Structures = append(result.Structures, newStructure(out.peal, out.analysis))
	}

	result.Families = agg.Families()
	log.Infow("Aggregated permutation families",
		"sequences", agg.SequenceCount(),
		"families", agg.Len(),
		"occurrences", agg.TotalOccurrences(),
	)
	return nil
}

// catalog attaches the group catalog of every distinct stage within the
// enumeration limit. Larger stages are reported, not enumerated.
func (o *Orchestrator) catalog(ctx context.Context, result *Result, log *logger.Logger) error {
	seen := make([]int, 0, len(result.Structures))
	for _, s := range result.Structures {
		seen = append(seen, s.Stage)
	}

	var stages []int
	for _, stage := range symgroup.DistinctStages(seen) {
		if stage > o.opts.MaxStage {
			result.SkippedStages = append(result.SkippedStages, stage)
			log.WithStage(stage).Warnw("Skipping group catalog above enumeration limit",
				"max_stage", o.opts.MaxStage,
			)
			continue
		}
		stages = append(stages, stage)
	}

	entries := make([]*symgroup.Entry, len(stages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, stage := range stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := o.cache.Get(stage)
			if err != nil {
				return fmt.Errorf("failed to build catalog for stage %d: %w", stage, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result.Catalog = entries
	return nil
}

func newStructure(p *peal.Peal, a *sequence.Analysis) Structure {
	return Structure{
		ID:          a.ID,
		Family:      StructureFamily,
		Title:       p.Metadata.Title,
		Stage:       a.Stage,
		Rows:        len(a.Rows),
		HuntBells:   p.HuntBells,
		SourceFile:  p.Source,
		Metadata:    p.Metadata,
		RowsDetail:  a.Rows,
		Transitions: a.Transitions,
		Summary:     a.Summary,
		Warnings:    p.Warnings,
	}
}

// RejectedErrors returns the underlying rejection errors in order.
func (r *Result) RejectedErrors() []error {
	errs := make([]error, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		errs = append(errs, rej.Err)
	}
	return errs
}

// Err joins every rejection error, or returns nil when nothing was rejected.
func (r *Result) Err() error {
	return errors.Join(r.RejectedErrors()...)
}

// Stages returns the sorted distinct stages of the library.
func (r *Result) Stages() []int {
	set := make(map[int]struct{})
	for _, s := range r.Structures {
		set[s.Stage] = struct{}{}
	}
	stages := make([]int, 0, len(set))
	for s := range set {
		stages = append(stages, s)
	}
	sort.Ints(stages)
	return stages
}
