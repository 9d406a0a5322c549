// Package slug derives stable, URL-safe lookup keys from display names.
//
// Feature flags and user segments are addressed by slug everywhere in this
// module: stores key their tables and maps by slug, and the evaluation and
// segment engines take slugs, never names. This package turns a human name
// like "Power Users (EU)" into the key "power-users-eu" so stores can seed
// a missing slug from the record's name.
//
// # Usage
//
//	import "github.com/dmitrymomot/gatekit/pkg/slug"
//
//	key := slug.Make("Dark Mode")
//	// "dark-mode"
//
//	key = slug.Make("Beta Testers", slug.WithSuffix(6))
//	// "beta-testers-x7g3k2"
//
// # Rules
//
// The output contains only lowercase ASCII letters, digits and single
// hyphens. Common Latin diacritics fold to their ASCII base letter
// ("Café" → "cafe"); every other character collapses into a hyphen, and
// runs of hyphens are merged. MaxLength caps the result in runes, and
// WithSuffix appends a random alphanumeric tail for collision avoidance
// (crypto/rand backed).
//
// All functions are pure and safe for concurrent use.
package slug
