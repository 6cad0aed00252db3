package tally

import (
	"context"
	"log/slog"

	"github.com/petrijr/tally/pkg/api"
)

// BranchStep builds a branch-point step directly; most callers use
// PipelineBuilder.Branch instead.
func BranchStep(cases ...BranchCase) StepFunc {
	return api.BranchStep(cases...)
}

// JoinStep builds a join step directly; most callers use
// PipelineBuilder.Join instead.
func JoinStep(fn func(ctx context.Context, branch string, value any) (any, error)) StepFunc {
	return api.JoinStep(fn)
}

// TypedStep wraps a strongly-typed function into a StepFunc.
// Example:
//
//	tally.TypedStep(func(ctx context.Context, m Message) (Message, error) { ... })
func TypedStep[I, O any](fn func(context.Context, I) (O, error)) StepFunc {
	return api.TypedStep(fn)
}

// CacheLookupStep returns a step that consults cache before the expensive
// part of a pipeline. key extracts the (owner, text) pair from the payload;
// on a hit, apply threads the cached reply into the payload (typically
// setting a precomputed-result flag that later steps check so they return
// the cached value instead of recomputing). On a miss the payload passes
// through unchanged.
//
// Cache backend failures are treated as misses and logged: the cache is an
// optimization, never a correctness dependency.
func CacheLookupStep[T any](c ResponseCache, logger *slog.Logger, key func(T) (owner, text string), apply func(T, string) T) StepFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return TypedStep(func(ctx context.Context, payload T) (T, error) {
		owner, text := key(payload)
		reply, hit, err := c.Get(ctx, owner, text)
		if err != nil {
			logger.Warn("cache_lookup_failed",
				slog.String("owner", owner),
				slog.Any("error", err),
			)
			return payload, nil
		}
		if !hit {
			return payload, nil
		}
		return apply(payload, reply), nil
	})
}

// CacheStoreStep returns a step that saves a freshly computed reply to
// cache. extract returns ok=false to skip the write — in particular when
// the reply itself was served from cache, caching it again is pointless.
// Write failures are logged and swallowed for the same reason lookups are.
func CacheStoreStep[T any](c ResponseCache, logger *slog.Logger, extract func(T) (owner, text, reply string, ok bool)) StepFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return TypedStep(func(ctx context.Context, payload T) (T, error) {
		owner, text, reply, ok := extract(payload)
		if !ok {
			return payload, nil
		}
		if err := c.Set(ctx, owner, text, reply); err != nil {
			logger.Warn("cache_store_failed",
				slog.String("owner", owner),
				slog.Any("error", err),
			)
		}
		return payload, nil
	})
}
