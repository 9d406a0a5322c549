package slug

import (
	"crypto/rand"
	"strings"
	"unicode"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength    int
	suffixLength int
}

// MaxLength caps the slug at n runes. Zero means unlimited.
func MaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// WithSuffix appends a random alphanumeric suffix of the given length,
// separated by a hyphen, to keep slugs unique when display names
// collide ("beta-testers-x7g3k2").
func WithSuffix(length int) Option {
	return func(c *config) {
		c.suffixLength = length
	}
}

// Make derives a stable lookup key from a display name: lowercase
// ASCII letters and digits separated by single hyphens. Diacritics fold
// to their ASCII base ("Café Users" becomes "cafe-users"); every other
// character collapses into a hyphen. Flag and segment stores call this
// to seed missing slugs from names.
func Make(name string, opts ...Option) string {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	count := 0
	for _, r := range name {
		if cfg.maxLength > 0 && count >= cfg.maxLength {
			break
		}

		r = unicode.ToLower(r)
		if folded, ok := foldTable[r]; ok {
			r = folded
		}

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				if cfg.maxLength > 0 && count+2 > cfg.maxLength {
					break
				}
				b.WriteByte('-')
				count++
			}
			pendingSep = false
			b.WriteRune(r)
			count++
			continue
		}

		pendingSep = true
	}

	result := b.String()
	if cfg.suffixLength > 0 {
		result = appendSuffix(result, cfg.suffixLength, cfg.maxLength)
	}
	return result
}

// foldTable maps Latin diacritics to their ASCII base letter. Built
// from per-letter rune sets; covers the major European languages.
var foldTable = func() map[rune]rune {
	groups := map[rune]string{
		'a': "àáâãäåāăąæ",
		'c': "çćč",
		'd': "đď",
		'e': "èéêëēėęě",
		'i': "ìíîïīį",
		'l': "ł",
		'n': "ñńň",
		'o': "òóôõöøōœ",
		'r': "ř",
		's': "śšșß",
		't': "ťț",
		'u': "ùúûüūůų",
		'y': "ýÿ",
		'z': "źžż",
	}
	table := make(map[rune]rune)
	for base, runes := range groups {
		for _, r := range runes {
			table[r] = base
		}
	}
	return table
}()

// appendSuffix attaches a random suffix, trimming the base slug when a
// max length would otherwise be exceeded.
func appendSuffix(base string, suffixLen, maxLength int) string {
	if maxLength > 0 {
		if suffixLen >= maxLength {
			return randomSuffix(maxLength)
		}
		budget := maxLength - suffixLen - 1
		if runes := []rune(base); len(runes) > budget {
			base = strings.TrimSuffix(string(runes[:max(budget, 0)]), "-")
		}
	}
	if base == "" {
		return randomSuffix(suffixLen)
	}
	return base + "-" + randomSuffix(suffixLen)
}

func randomSuffix(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// Degenerate but deterministic fallback when the entropy source
		// is unavailable.
		for i := range b {
			b[i] = charset[i%len(charset)]
		}
		return string(b)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
