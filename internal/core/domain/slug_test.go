package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"my-site", "my-site"},
		{"My App 2.0", "my-app-2-0"},
		{"docs_v2", "docs-v2"},
		{"  Spaced  Out  ", "spaced-out"},
		{"__Dist Files", "dist-files"},
		{"UPPER", "upper"},
		{"weird!@#chars", "weirdchars"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}
