// Package pipeline runs batches of raw owner names through the cache, the
// optional primary parser, the fallback parser, the result validator and
// the tracker.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tidyframe/tidyframe/internal/cache"
	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/parser"
	"github.com/tidyframe/tidyframe/internal/resilience"
	"github.com/tidyframe/tidyframe/internal/tracker"
	"github.com/tidyframe/tidyframe/internal/validate"
)

// DefaultMaxConcurrent bounds the number of names processed at once.
const DefaultMaxConcurrent = 8

// Options configures a Pipeline.
type Options struct {
	// Parser is the fallback parser. Required.
	Parser *parser.Parser
	// Tracker annotates results and counts them. Defaults to tracker.New
	// with default thresholds.
	Tracker *tracker.Tracker
	// Cache memoizes results. Nil disables caching.
	Cache *cache.Manager
	// Primary is tried before the fallback parser when set.
	Primary PrimaryParser
	// PrimaryConfig controls calls into Primary.
	PrimaryConfig PrimaryConfig
	// MaxConcurrent bounds parallel items. Default: 8.
	MaxConcurrent int
	// Session accumulates statistics across runs. Defaults to a new session.
	Session *tracker.Session
}

// Pipeline processes batches of raw names. It is safe for concurrent use.
type Pipeline struct {
	parser      *parser.Parser
	tracker     *tracker.Tracker
	session     *tracker.Session
	cache       *cache.Manager
	primary     PrimaryParser
	primaryCfg  PrimaryConfig
	limiter     *rate.Limiter
	breaker     *resilience.Breaker
	concurrency int
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		parser:      opts.Parser,
		tracker:     opts.Tracker,
		session:     opts.Session,
		cache:       opts.Cache,
		primary:     opts.Primary,
		primaryCfg:  opts.PrimaryConfig.withDefaults(),
		concurrency: opts.MaxConcurrent,
	}
	if p.parser == nil {
		p.parser = parser.New(parser.Options{})
	}
	if p.tracker == nil {
		p.tracker = tracker.New(tracker.Thresholds{})
	}
	if p.session == nil {
		p.session = tracker.NewSession()
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultMaxConcurrent
	}
	if p.primary != nil {
		p.limiter = rate.NewLimiter(rate.Limit(p.primaryCfg.RequestsPerSecond), p.primaryCfg.burst())
		p.breaker = resilience.NewBreaker("primary-parser", p.primaryCfg.Breaker)
	}
	return p
}

// Session returns the statistics accumulated over every completed Run.
func (p *Pipeline) Session() *tracker.Session { return p.session }

// Inputs wraps plain strings as RawNameInput rows numbered from zero.
func Inputs(texts []string) []model.RawNameInput {
	out := make([]model.RawNameInput, len(texts))
	for i, t := range texts {
		out[i] = model.RawNameInput{Text: t, RowIndex: i}
	}
	return out
}

// Run processes inputs and returns one result per input, in input order,
// with the batch statistics. A failing item yields an error result at its
// position and never aborts the batch. The only error returned is context
// cancellation, in which case the results are discarded.
func (p *Pipeline) Run(ctx context.Context, inputs []model.RawNameInput) ([]model.ParsedName, model.BatchStatistics, error) {
	stats := model.NewBatchStatistics(uuid.NewString())
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("batch_id", stats.BatchID),
	)
	start := time.Now()

	results := make([]model.ParsedName, len(inputs))
	var cacheHits, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, hit, err := p.processOne(gctx, in)
			if err != nil {
				failed.Add(1)
				log.Error("pipeline: item failed",
					zap.Int("row_index", in.RowIndex),
					zap.Error(err),
				)
			}
			if hit {
				cacheHits.Add(1)
			}
			results[i] = res
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, eris.Wrap(err, "pipeline: run cancelled")
	}

	for _, r := range results {
		p.tracker.Record(&stats, r)
	}
	stats.CacheHits = int(cacheHits.Load())
	stats.FinishedAt = time.Now().UTC()
	p.session.Merge(stats)

	log.Info("batch complete",
		zap.Int("total", stats.TotalProcessed),
		zap.Int("gemini", stats.GeminiSuccess),
		zap.Int("fallback", stats.FallbackUsed),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int64("failed", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, stats, nil
}

// processOne produces the result for a single input. The error is
// informational: the returned result is always usable.
func (p *Pipeline) processOne(ctx context.Context, in model.RawNameInput) (res model.ParsedName, hit bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic processing row %d: %v", in.RowIndex, r)
			res = p.failed(in, fmt.Sprintf("Parsing failed: %v", r))
			hit = false
		}
	}()

	check := validate.ValidateInput(in.Text)
	if !check.Valid {
		return p.tracker.CreateResult(tracker.ResultInput{
			Method:       model.MethodError,
			Reason:       model.ReasonInvalidInput,
			Warnings:     []string{check.Error},
			OriginalText: in.Text,
			Fields:       tracker.Fields{RowIndex: in.RowIndex},
		}), false, nil
	}
	text := check.Sanitized
	cacheable := p.cache != nil && text != ""

	if cacheable {
		if c := p.cache.Get(ctx, text); c != nil {
			out := c.Result.Clone()
			out.OriginalText = in.Text
			out.RowIndex = in.RowIndex
			return out, true, nil
		}
	}

	out, reason, ok := p.tryPrimary(ctx, text)
	if !ok {
		parsed, perr := p.parser.TryParse(text)
		if perr != nil {
			return p.failed(in, "Parsing failed: "+perr.Error()), false, perr
		}
		out = parsed
		out.FallbackReason = reason
	}

	vr := validate.ValidateResult(out)
	out = vr.Corrected
	for _, w := range vr.Warnings {
		out.AddWarning(w)
	}
	for _, w := range check.Warnings {
		out.AddWarning(w)
	}
	out = p.tracker.Annotate(out)

	if cacheable && out.ParsingMethod != model.MethodError {
		p.cache.Put(ctx, text, out)
	}

	out.OriginalText = in.Text
	out.RowIndex = in.RowIndex
	return out, false, nil
}

func (p *Pipeline) failed(in model.RawNameInput, warning string) model.ParsedName {
	return p.tracker.CreateResult(tracker.ResultInput{
		Method:       model.MethodError,
		Reason:       model.ReasonParseError,
		Warnings:     []string{warning},
		OriginalText: in.Text,
		Fields:       tracker.Fields{RowIndex: in.RowIndex},
	})
}
