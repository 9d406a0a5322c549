package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		opts     []slug.Option
		expected string
	}{
		{
			name:     "flag name",
			input:    "Dark Mode",
			expected: "dark-mode",
		},
		{
			name:     "segment name with punctuation",
			input:    "Power Users (EU)",
			expected: "power-users-eu",
		},
		{
			name:     "numbers pass through",
			input:    "Cohort 2026",
			expected: "cohort-2026",
		},
		{
			name:     "runs of separators collapse",
			input:    "Beta  --  Testers",
			expected: "beta-testers",
		},
		{
			name:     "leading and trailing noise trimmed",
			input:    "  New Checkout!  ",
			expected: "new-checkout",
		},
		{
			name:     "diacritics fold to ascii",
			input:    "Café Früh Señor",
			expected: "cafe-fruh-senor",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "nothing usable",
			input:    "!@#$%",
			expected: "",
		},
		{
			name:     "max length truncates",
			input:    "Churned Enterprise Accounts",
			opts:     []slug.Option{slug.MaxLength(10)},
			expected: "churned-en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Make(tt.input, tt.opts...))
		})
	}
}

func TestMakeWithSuffix(t *testing.T) {
	t.Parallel()

	s := slug.Make("Beta Testers", slug.WithSuffix(6))
	require.True(t, strings.HasPrefix(s, "beta-testers-"), "got %q", s)
	assert.Len(t, s, len("beta-testers-")+6)

	// Two calls produce distinct keys for the same name.
	other := slug.Make("Beta Testers", slug.WithSuffix(6))
	assert.NotEqual(t, s, other)
}

func TestMakeWithSuffixAndMaxLength(t *testing.T) {
	t.Parallel()

	s := slug.Make("A Rather Long Segment Name", slug.MaxLength(16), slug.WithSuffix(4))
	assert.LessOrEqual(t, len([]rune(s)), 16)
	assert.NotEmpty(t, s)

	// Suffix as long as the budget leaves no room for the base slug.
	only := slug.Make("Anything", slug.MaxLength(4), slug.WithSuffix(4))
	assert.Len(t, only, 4)
	assert.NotContains(t, only, "-")
}
