package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phila-data/enrich-cli/internal/config"
	"github.com/phila-data/enrich-cli/internal/model"
)

// BatchOptions bounds a batch run.
type BatchOptions struct {
	Concurrency int
	Timeout     time.Duration
}

// AddressExtractor builds the raw address string for a record from the
// configured column mapping: the single full-address column, or the
// street/city/state/zip columns joined into one line.
func AddressExtractor(cfg config.InputConfig) func(model.RawRecord) string {
	if cfg.FullAddressField != "" {
		return func(rec model.RawRecord) string {
			return rec.Get(cfg.FullAddressField)
		}
	}
	return func(rec model.RawRecord) string {
		parts := make([]string, 0, 4)
		if s := strings.TrimSpace(rec.Get(cfg.StreetField)); s != "" {
			parts = append(parts, s)
		}
		for _, col := range []string{cfg.CityField, cfg.StateField, cfg.ZipField} {
			if col == "" {
				continue
			}
			if v := strings.TrimSpace(rec.Get(col)); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, ", ")
	}
}

// RunBatch resolves every record through a bounded worker pool and
// returns outcomes indexed by input row. Records still unresolved when
// the batch deadline passes come back as timed-out Unmatched markers;
// the rest of the batch is unaffected. Per-record failures never abort
// the batch.
func RunBatch(ctx context.Context, resolver *Resolver, extract func(model.RawRecord) string, rows []model.RawRecord, opts BatchOptions) []model.Outcome {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	outcomes := make([]model.Outcome, len(rows))

	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	for i := range rows {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = model.Outcome{Kind: model.OutcomeUnmatched, TimedOut: true}
				return nil
			}

			out, trace := resolver.Resolve(ctx, extract(rows[i]))
			if out.Kind == model.OutcomeUnmatched && !out.Malformed && ctx.Err() != nil {
				out.TimedOut = true
			}
			outcomes[i] = out

			zap.L().Debug("pipeline: record resolved",
				zap.Int("row", rows[i].Index),
				zap.String("outcome", out.Kind.String()),
				zap.String("source", out.Source),
				zap.Int("remote_calls", out.RemoteCalls),
				zap.Stringers("trace", trace),
			)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return outcomes
}
