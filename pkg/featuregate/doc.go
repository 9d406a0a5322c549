// Package featuregate decides whether a feature is active for a given
// user, combining a global switch, an activation window, sticky
// percentage rollouts, segment membership and attribute conditions.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Flag - a named switch with targeting configuration, looked up by slug
//  2. Store - the persistence boundary (in-memory, PostgreSQL, MongoDB)
//  3. Gate - the evaluator, wired with optional capabilities (cache,
//     segment checker, population counter, logger, clock)
//
// Evaluation runs a fixed pipeline in which every step can
// short-circuit to inactive:
//
//	enabled → activation window → rollout bucket → segments → conditions
//
// # Rollout Buckets
//
// Percentage rollouts assign each user a stable bucket in [0,100) by
// hashing the flag slug together with the user ID (FNV-1a). The bucket
// never changes for a (flag, user) pair, which makes rollouts sticky:
// raising the percentage only ever flips users from inactive to
// active, and repeated evaluation is consistent across calls and
// process restarts.
//
// # Usage
//
//	store, err := featuregate.NewMemoryStore(
//		&featuregate.Flag{
//			Name:              "New UI",
//			Slug:              "new-ui",
//			Enabled:           true,
//			RolloutPercentage: 50,
//		},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gate := featuregate.New(store,
//		featuregate.WithCache(featuregate.NewLRUFlagCache(256, 30*time.Second)),
//	)
//
//	subject := &featuregate.Subject{ID: userID, Attributes: map[string]any{
//		"role": "admin",
//		"plan": "pro",
//	}}
//	active, err := gate.IsFeatureEnabled(ctx, "new-ui", subject)
//
// # Segment Targeting
//
// A flag restricted to segments requires a SegmentChecker, satisfied
// by segment.Engine:
//
//	engine := segment.NewEngine(segStore, users)
//	gate := featuregate.New(store, featuregate.WithSegments(engine))
//
// Membership in any one of the flag's segments qualifies.
//
// # Error Handling
//
// Evaluation paths encode misses as policy defaults instead of errors:
// an unknown slug is inactive, a failing segment lookup counts as
// non-membership. Management paths (CreateFlag, UpdateFlag, ...)
// return sentinel errors checkable with errors.Is:
//
//	if errors.Is(err, featuregate.ErrFlagNotFound) { ... }
//
// # Concurrency
//
// Gate evaluation is read-only and the rollout hash is pure, so a
// single Gate is safe for unbounded parallel evaluation. Stores
// serialize their own mutations.
package featuregate
