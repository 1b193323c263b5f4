package qualify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/internal/resilience"
)

// QualifyAll runs the pipeline for every lead concurrently with unbounded
// fan-out and returns exactly len(leads) results, index-aligned with the
// input. Individual failures degrade inside QualifyLead, so the orchestrator
// sees uniform success.
func (e *Engine) QualifyAll(ctx context.Context, leads []model.Lead) []model.QualifiedLead {
	results := make([]model.QualifiedLead, len(leads))

	g, gCtx := errgroup.WithContext(ctx)
	for i, lead := range leads {
		g.Go(func() error {
			results[i] = e.QualifyLead(gCtx, lead)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// BatchOptions configures QualifyBatches.
type BatchOptions struct {
	// Size is the chunk size. Default: 10.
	Size int

	// ItemTimeout bounds each lead's pipeline run. Default: 30s.
	ItemTimeout time.Duration

	// Retries re-runs a lead whose pipeline failed, up to this many extra
	// attempts. Retries live at this boundary only; the pipeline itself
	// never retries. Default: 0.
	Retries int
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Size <= 0 {
		o.Size = 10
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = 30 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	return o
}

// QualifyBatches runs the pipeline in fixed-size chunks, bounding each lead
// with ItemTimeout. The timeout context is propagated into the upstream
// calls, so timing out also cancels the in-flight request. A timed-out
// lead's result is dropped, not degraded, so the output can under-return
// relative to the input count; order is preserved within surviving results
// of each chunk, concatenated chunk-by-chunk.
func (e *Engine) QualifyBatches(ctx context.Context, leads []model.Lead, opts BatchOptions) []model.QualifiedLead {
	opts = opts.withDefaults()

	var out []model.QualifiedLead
	for start := 0; start < len(leads); start += opts.Size {
		end := min(start+opts.Size, len(leads))
		chunk := leads[start:end]

		// Index-aligned slots; nil marks a dropped (timed-out) lead.
		slots := make([]*model.QualifiedLead, len(chunk))

		g, gCtx := errgroup.WithContext(ctx)
		for i, lead := range chunk {
			g.Go(func() error {
				res, ok := e.qualifyWithTimeout(gCtx, lead, opts)
				if ok {
					slots[i] = &res
				}
				return nil
			})
		}
		// The next chunk starts only after the current chunk settles.
		_ = g.Wait()

		for _, s := range slots {
			if s != nil {
				out = append(out, *s)
			}
		}
	}

	return out
}

// qualifyWithTimeout runs one lead under its item timeout. Returns ok=false
// when the item timed out (result dropped); other failures degrade as usual.
func (e *Engine) qualifyWithTimeout(ctx context.Context, lead model.Lead, opts BatchOptions) (model.QualifiedLead, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, opts.ItemTimeout)
	defer cancel()

	run := func(runCtx context.Context) (model.QualifiedLead, error) {
		return e.Qualify(runCtx, lead)
	}

	var res model.QualifiedLead
	var err error
	if opts.Retries > 0 {
		res, err = resilience.DoVal(itemCtx, resilience.RetryConfig{
			MaxAttempts: opts.Retries + 1,
			ShouldRetry: func(error) bool { return true },
			OnRetry:     resilience.RetryLogger("anthropic", "qualify"),
		}, run)
	} else {
		res, err = run(itemCtx)
	}

	if err != nil {
		if errors.Is(itemCtx.Err(), context.DeadlineExceeded) {
			zap.L().Warn("qualify: lead timed out, result dropped",
				zap.String("email", lead.Email),
				zap.Duration("timeout", opts.ItemTimeout),
			)
			return model.QualifiedLead{}, false
		}
		return Degraded(lead, err), true
	}

	return res, true
}
