package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			src:      "That *was* hard",
			contains: []string{"<em>was</em>"},
		},
		{
			name:     "strong and emphasis",
			src:      "**Awesome** *test*",
			contains: []string{"<strong>Awesome</strong>", "<em>test</em>"},
		},
		{
			name:     "script is stripped",
			src:      "hi <script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "javascript links are dropped",
			src:      "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.src)
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, string(out), c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, string(out), e)
			}
		})
	}

	out, err := r.Render("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
