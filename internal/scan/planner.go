// Package scan selects the row groups of a file that a reader has to decode,
// by evaluating a search argument against the row index statistics.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/sarg"
)

// DefaultParallelism is the number of stripes evaluated concurrently.
const DefaultParallelism = 4

// Counters records row group pruning for one file.
type Counters struct {
	Initial        int `json:"initial"`
	Survived       int `json:"survived"`
	NoStats        int `json:"no_stats"`
	StripesSkipped int `json:"stripes_skipped"`
}

// RowGroupResult is the decision taken for one row group.
type RowGroupResult struct {
	Stripe   int             `json:"stripe"`
	RowGroup int             `json:"row_group"`
	Value    sarg.TruthValue `json:"value"`
	Decision sarg.Decision   `json:"decision"`
}

// Plan lists the decision for every row group of a file, in stripe order.
type Plan struct {
	FileID    int64            `json:"file_id"`
	RowGroups []RowGroupResult `json:"row_groups"`
	Counters  Counters         `json:"counters"`
}

// Selected returns the keys of the row groups that must be read.
func (p *Plan) Selected() []encoded.BatchKey {
	keys := make([]encoded.BatchKey, 0, p.Counters.Survived)
	for _, r := range p.RowGroups {
		if r.Decision != sarg.Skip {
			keys = append(keys, encoded.BatchKey{FileID: p.FileID, Stripe: r.Stripe, RowGroup: r.RowGroup})
		}
	}
	return keys
}

// Include reports per stripe which row groups must be read.
func (p *Plan) Include() [][]bool {
	var include [][]bool
	for _, r := range p.RowGroups {
		for len(include) <= r.Stripe {
			include = append(include, nil)
		}
		include[r.Stripe] = append(include[r.Stripe], r.Decision != sarg.Skip)
	}
	return include
}

// Planner picks row groups using statistics from a StatsReader.
type Planner struct {
	reader      encoded.StatsReader
	parallelism int
	logger      log.Logger
	metrics     *Metrics
}

// Option configures a Planner.
type Option func(*Planner)

// WithParallelism bounds the number of stripes evaluated at once.
func WithParallelism(n int) Option {
	return func(p *Planner) { p.parallelism = n }
}

// WithLogger sets the logger used for pruning summaries.
func WithLogger(logger log.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithMetrics records decisions and planning time.
func WithMetrics(m *Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// NewPlanner returns a planner reading statistics from reader.
func NewPlanner(reader encoded.StatsReader, opts ...Option) *Planner {
	p := &Planner{
		reader:      reader,
		parallelism: DefaultParallelism,
		logger:      log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.parallelism <= 0 {
		p.parallelism = DefaultParallelism
	}
	return p
}

// PickRowGroups evaluates s against every row group of a file. A stripe whose
// merged statistics already rule out every row is skipped without looking at
// its row groups. A nil search argument selects everything.
func (p *Planner) PickRowGroups(ctx context.Context, s *sarg.SearchArgument, fileID int64) (*Plan, error) {
	start := time.Now()
	layout, err := p.reader.Layout(ctx, fileID)
	if err != nil {
		return nil, errors.Wrapf(err, "layout of file %d", fileID)
	}

	stripes := make([][]RowGroupResult, len(layout))
	skippedStripes := make([]bool, len(layout))
	if s == nil {
		for stripe, n := range layout {
			stripes[stripe] = readAll(stripe, n, sarg.YesNoNull, sarg.Read)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.parallelism)
		for stripe, n := range layout {
			if n == 0 {
				continue
			}
			stripe, n := stripe, n
			g.Go(func() error {
				results, skipped, err := p.evaluateStripe(gctx, s, fileID, stripe, n)
				if err != nil {
					return err
				}
				stripes[stripe] = results
				skippedStripes[stripe] = skipped
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	plan := &Plan{FileID: fileID}
	for i, results := range stripes {
		if skippedStripes[i] {
			plan.Counters.StripesSkipped++
		}
		plan.RowGroups = append(plan.RowGroups, results...)
	}
	p.summarize(plan, s == nil)
	if p.metrics != nil {
		p.metrics.PlanDuration.Observe(time.Since(start).Seconds())
	}
	return plan, nil
}

func readAll(stripe, n int, v sarg.TruthValue, d sarg.Decision) []RowGroupResult {
	results := make([]RowGroupResult, n)
	for rg := range results {
		results[rg] = RowGroupResult{Stripe: stripe, RowGroup: rg, Value: v, Decision: d}
	}
	return results
}

func (p *Planner) evaluateStripe(
	ctx context.Context, s *sarg.SearchArgument, fileID int64, stripe, n int,
) ([]RowGroupResult, bool, error) {
	key := encoded.BatchKey{FileID: fileID, Stripe: stripe, RowGroup: encoded.AllRowGroups}
	stripeStats, err := p.reader.RowGroupStatistics(ctx, key)
	switch {
	case err == nil:
		if r := s.EvaluateStatistics(stripeStats); r.Decision == sarg.Skip {
			return readAll(stripe, n, r.Value, sarg.Skip), true, nil
		}
	case errors.Is(err, encoded.ErrNotFound):
		level.Debug(p.logger).Log("msg", "no stripe statistics", "key", key)
	default:
		return nil, false, errors.Wrapf(err, "statistics of %s", key)
	}

	results := make([]RowGroupResult, n)
	for rg := range results {
		key.RowGroup = rg
		rgStats, err := p.reader.RowGroupStatistics(ctx, key)
		if err != nil && !errors.Is(err, encoded.ErrNotFound) {
			return nil, false, errors.Wrapf(err, "statistics of %s", key)
		}
		// A missing row group entry has no statistics at all.
		r := s.EvaluateStatistics(rgStats)
		results[rg] = RowGroupResult{Stripe: stripe, RowGroup: rg, Value: r.Value, Decision: r.Decision}
	}
	return results, false, nil
}

func (p *Planner) summarize(plan *Plan, unfiltered bool) {
	c := &plan.Counters
	var skipped []string
	for _, r := range plan.RowGroups {
		c.Initial++
		switch r.Decision {
		case sarg.Skip:
			skipped = append(skipped, fmt.Sprintf("%d/%d", r.Stripe, r.RowGroup))
		case sarg.ReadNoStats:
			c.NoStats++
			c.Survived++
		default:
			c.Survived++
		}
		if p.metrics != nil {
			p.metrics.RowGroups.WithLabelValues(r.Decision.String()).Inc()
		}
	}
	if p.metrics != nil {
		p.metrics.StripesSkipped.Add(float64(c.StripesSkipped))
	}

	logger := log.With(p.logger, "file", plan.FileID)
	if unfiltered {
		level.Debug(logger).Log("msg", fmt.Sprintf("no search argument, passing all %d row groups through", c.Initial))
		return
	}
	if len(skipped) > 0 {
		level.Debug(logger).Log("msg", fmt.Sprintf("skipped %d row groups", len(skipped)), "row_groups", strings.Join(skipped, ", "))
	}
	if c.Survived == 0 && c.Initial > 0 {
		level.Info(logger).Log("msg", fmt.Sprintf("all %d row groups skipped, no data to scan", c.Initial))
		return
	}
	level.Info(logger).Log(
		"msg", fmt.Sprintf("selected %d/%d row groups, %d skipped", c.Survived, c.Initial, c.Initial-c.Survived),
		"stripes_skipped", c.StripesSkipped,
		"no_stats", c.NoStats,
	)
}
