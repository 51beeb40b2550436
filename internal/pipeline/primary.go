package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/resilience"
)

// PrimaryParser is an external parser tried before the fallback parser,
// typically backed by a language model. Implementations return
// ErrRateLimited when the upstream throttles and ErrInvalidResponse when
// the upstream answer cannot be used.
type PrimaryParser interface {
	ParseName(ctx context.Context, text string) (model.ParsedName, error)
}

// Errors a PrimaryParser may return to select a specific fallback reason.
var (
	ErrRateLimited     = eris.New("primary parser rate limited")
	ErrInvalidResponse = eris.New("primary parser returned an invalid response")
)

// PrimaryConfig controls calls into a PrimaryParser.
type PrimaryConfig struct {
	// Timeout bounds one call including the rate limiter wait. Default: 10s.
	Timeout time.Duration
	// RequestsPerSecond caps the call rate. Default: 5.
	RequestsPerSecond float64
	// Breaker opens after repeated failures so a broken upstream is
	// skipped quickly.
	Breaker resilience.BreakerConfig
}

func (c PrimaryConfig) withDefaults() PrimaryConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	return c
}

func (c PrimaryConfig) burst() int {
	if c.RequestsPerSecond < 1 {
		return 1
	}
	return int(c.RequestsPerSecond)
}

// tryPrimary asks the primary parser for a result. When it returns false
// the caller falls back, recording the returned reason.
func (p *Pipeline) tryPrimary(ctx context.Context, text string) (model.ParsedName, model.FallbackReason, bool) {
	if p.primary == nil {
		return model.ParsedName{}, model.ReasonPrimaryDisabled, false
	}

	tctx, cancel := context.WithTimeout(ctx, p.primaryCfg.Timeout)
	defer cancel()

	if err := p.limiter.Wait(tctx); err != nil {
		return model.ParsedName{}, model.ReasonRateLimited, false
	}

	res, err := resilience.Call(tctx, p.breaker, func(ctx context.Context) (model.ParsedName, error) {
		r, err := p.primary.ParseName(ctx, text)
		if err != nil {
			return r, err
		}
		if !usable(r) {
			return r, ErrInvalidResponse
		}
		return r, nil
	})
	if err != nil {
		reason := primaryReason(err)
		zap.L().Debug("pipeline: primary parser failed",
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return model.ParsedName{}, reason, false
	}

	res.ParsingMethod = model.MethodGemini
	res.FallbackReason = model.ReasonNone
	res.OriginalText = text
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	return res, model.ReasonNone, true
}

// usable reports whether a primary result is structurally acceptable.
// Out-of-range values are left for the result validator to correct.
func usable(r model.ParsedName) bool {
	if !r.EntityType.Valid() {
		return false
	}
	if r.EntityType == model.EntityPerson && !r.HasName() {
		return false
	}
	return true
}

func primaryReason(err error) model.FallbackReason {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return model.ReasonCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return model.ReasonTimeout
	case errors.Is(err, ErrRateLimited):
		return model.ReasonRateLimited
	case errors.Is(err, ErrInvalidResponse):
		return model.ReasonInvalidResponse
	default:
		return model.ReasonAPIError
	}
}
