package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type finding struct {
	Issue    string `json:"issue"`
	Priority int    `json:"priority"`
}

func TestParseDirectJSON(t *testing.T) {
	result := Parse[finding](`{"issue": "vague", "priority": 1}`, "test")
	assert.True(t, result.Success)
	assert.Equal(t, "vague", result.Data.Issue)
	assert.Equal(t, 1, result.Data.Priority)
}

func TestParseCodeFenced(t *testing.T) {
	text := "```json\n{\"issue\": \"vague\", \"priority\": 2}\n```"
	result := Parse[finding](text, "test")
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Data.Priority)
}

func TestParseTrailingComma(t *testing.T) {
	result := Parse[finding](`{"issue": "vague", "priority": 3,}`, "test")
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Data.Priority)
}

func TestParseUnquotedKeys(t *testing.T) {
	result := Parse[finding](`{issue: "vague", priority: 4}`, "test")
	assert.True(t, result.Success)
	assert.Equal(t, "vague", result.Data.Issue)
}

func TestParseEmbeddedInProse(t *testing.T) {
	text := `Here is my analysis:

{"issue": "vague", "priority": 5}

Let me know if you need more detail.`
	result := Parse[finding](text, "test")
	assert.True(t, result.Success)
	assert.Equal(t, 5, result.Data.Priority)
}

func TestParseArray(t *testing.T) {
	result := Parse[[]string](`["a", "b"]`, "test")
	assert.True(t, result.Success)
	assert.Equal(t, []string{"a", "b"}, result.Data)
}

func TestParseEmptyInput(t *testing.T) {
	result := Parse[finding]("   ", "research findings")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "research findings")
}

func TestParseGarbage(t *testing.T) {
	result := Parse[finding]("this is not json at all", "test")
	assert.False(t, result.Success)
	assert.Equal(t, "this is not json at all", result.OriginalText)
}
