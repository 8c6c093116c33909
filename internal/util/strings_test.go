package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrNone(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{name: "empty", items: nil, want: "(none)"},
		{name: "single", items: []string{"homelab"}, want: "homelab"},
		{name: "multiple", items: []string{"homelab", "staging"}, want: "homelab, staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinOrNone(tt.items))
		})
	}
}

func TestJoinOrDefault(t *testing.T) {
	assert.Equal(t, "-", JoinOrDefault(nil, "-"))
	assert.Equal(t, "a, b", JoinOrDefault([]string{"a", "b"}, "-"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "check", Pluralize(1, "check", "checks"))
	assert.Equal(t, "checks", Pluralize(0, "check", "checks"))
	assert.Equal(t, "checks", Pluralize(2, "check", "checks"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "shorter than max", in: "abc", max: 10, want: "abc"},
		{name: "exactly max", in: "abcde", max: 5, want: "abcde"},
		{name: "cut with ellipsis", in: "abcdefghij", max: 8, want: "abcde..."},
		{name: "tiny max", in: "abcdef", max: 2, want: "ab"},
		{name: "zero max", in: "abc", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestTruncate_MultibyteSafe(t *testing.T) {
	s := strings.Repeat("ü", 10)
	got := Truncate(s, 8)
	assert.Equal(t, "üüüüü...", got)
}
