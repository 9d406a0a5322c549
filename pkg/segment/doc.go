// Package segment maintains named groups of users, either manually
// curated (static) or computed from attribute conditions (dynamic).
//
// # Architecture
//
// Three boundaries cooperate:
//
//  1. Segment - configuration plus cached stats (user count, last
//     calculation timestamp)
//  2. Store - segments and their membership rows (in-memory or
//     PostgreSQL)
//  3. UserSource - the external user population, queried with the
//     segment's conditions (in-memory fold or SQL translation)
//
// The Engine ties them together. Dynamic segments derive membership
// from their conditions; a refresh replaces the stored membership with
// exactly the current matches. Static segments, and dynamic segments
// without conditions, keep whatever membership AddUser/RemoveUser
// curated.
//
// # Condition Folds
//
// Segment conditions compose left-to-right by each condition's Logic
// tag (see condition.MatchFold): or widens the accumulated filter, and
// narrows it. The PostgreSQL user source translates the same fold into
// a nested WHERE expression, so in-memory and SQL evaluation agree.
//
// # Usage
//
//	store, err := segment.NewMemoryStore(&segment.Segment{
//		Name:    "Pro Users",
//		Slug:    "pro-users",
//		Dynamic: true,
//		Active:  true,
//		Conditions: []condition.Condition{
//			{Field: "plan", Operator: condition.OpEquals, Value: "pro"},
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine := segment.NewEngine(store, users)
//	if err := engine.RefreshMemberships(ctx, "pro-users"); err != nil {
//		log.Fatal(err)
//	}
//
// Periodic recomputation:
//
//	refresher := segment.NewRefresher(engine, segment.RefresherConfig{Interval: 15 * time.Minute})
//	refresher.Start(ctx)
//	defer refresher.Stop()
//
// # Consistency
//
// Engine operations are synchronous and run to completion; concurrency
// control lives in the Store. Membership mutations are serialized per
// segment (mutex in memory, row locks in PostgreSQL) so the cached
// user count survives concurrent add/remove without lost updates, and
// a membership replace is atomic: readers observe either the old or
// the new set, never a partial sync.
//
// # Error Handling
//
// Read paths treat an unknown slug as an empty result (zero count,
// non-member) rather than an error. Management paths return sentinel
// errors checkable with errors.Is.
package segment
