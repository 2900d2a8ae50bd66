package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteJSON(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
		ok     bool
	}{
		{"complete object", `{"answer": "yes"}`, `{"answer": "yes"}`, true},
		{"open string", `{"answer": "partial ans`, `{"answer": "partial ans"}`, true},
		{"open object", `{"answer": "done"`, `{"answer": "done"}`, true},
		{"open array", `{"sources": ["a", "b`, `{"sources": ["a", "b"]}`, true},
		{"nested", `{"a": {"b": ["c`, `{"a": {"b": ["c"]}}`, true},
		{"dangling key", `{"answer":`, "", false},
		{"dangling comma", `{"sources": ["a",`, "", false},
		{"mid escape", `{"answer": "a\`, "", false},
		{"empty", "", "", false},
		{"mismatched close", `{"a": ]`, "", false},
		{"escaped quote stays open", `{"answer": "say \"hi`, `{"answer": "say \"hi"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := completeJSON(tt.prefix)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePartialAnswer(t *testing.T) {
	ans, ok := parsePartialAnswer(`{"answer": "cats are mammals [1]", "sources": ["facts.txt`)
	require.True(t, ok)
	assert.Equal(t, "cats are mammals [1]", ans.Answer)
	assert.Equal(t, []string{"facts.txt"}, ans.Sources)
}

func TestParsePartialAnswer_MidKey(t *testing.T) {
	// A prefix cut inside a key completes syntactically but decodes to
	// nothing useful; it still must not produce a spurious answer.
	ans, ok := parsePartialAnswer(`{"ans`)
	if ok {
		assert.Empty(t, ans.Answer)
	}
}
