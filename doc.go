// Package gatekit provides the building blocks for feature flagging and user
// segmentation in multi-tenant Go applications.
//
// gatekit is a library of small, focused packages rather than a framework.
// Each package under pkg/ is independent and can be adopted on its own:
//
//   - pkg/featuregate – feature flag definitions and the evaluation pipeline:
//     date windows, percentage rollouts, segment targeting and attribute
//     conditions, with in-memory, PostgreSQL and MongoDB stores plus optional
//     LRU and Redis flag caches.
//   - pkg/segment – dynamic and static user segments: condition-driven
//     membership recalculation, full membership refresh, manual add/remove,
//     growth-rate reporting and a background refresher.
//   - pkg/condition – the shared attribute condition model and evaluator used
//     by both flags and segments.
//
// Supporting packages cover the ambient concerns every deployment needs:
// pkg/logger (slog factory with context extractors), pkg/config (env-based
// configuration loading), pkg/pg, pkg/redis and pkg/mongo (connection helpers
// with retries and health checks), pkg/cache (a generic LRU with TTL) and
// pkg/slug (stable identifiers derived from display names).
//
// Basic Usage:
//
//	store := featuregate.NewMemoryStore()
//	gate := featuregate.New(store,
//		featuregate.WithSegments(engine),
//		featuregate.WithLogger(log),
//	)
//
//	active, err := gate.IsActiveForUser(ctx, "dark-mode", &featuregate.Subject{
//		ID:         userID,
//		Attributes: map[string]any{"plan": "pro"},
//	})
//
// The library follows these principles:
//   - Evaluation never fails a request: unknown flags and segments read as
//     inactive rather than returning errors
//   - Deterministic rollouts: the same user sees the same result until the
//     percentage changes
//   - Explicit over implicit
package gatekit
