package validation

import (
	"strings"
	"testing"

	"docsmith-worker/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubmitRequest(t *testing.T) {
	validator := NewAPIValidator()

	tests := []struct {
		name     string
		prompt   string
		expected string
	}{
		{
			name:     "prompt conservé tel quel",
			prompt:   "Write a memo about Q3",
			expected: "Write a memo about Q3",
		},
		{
			name:     "espaces périphériques supprimés",
			prompt:   "  Write a memo  ",
			expected: "Write a memo",
		},
		{
			name:     "prompt vide remplacé par défaut",
			prompt:   "",
			expected: models.DefaultPrompt,
		},
		{
			name:     "prompt blanc remplacé par défaut",
			prompt:   "   \t\n  ",
			expected: models.DefaultPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &models.SubmitRequest{Prompt: tt.prompt}
			validator.NormalizeSubmitRequest(req)
			assert.Equal(t, tt.expected, req.Prompt)
		})
	}
}

func TestNormalizeSubmitRequestTruncates(t *testing.T) {
	validator := NewAPIValidator()

	req := &models.SubmitRequest{Prompt: strings.Repeat("a", 200_000)}
	validator.NormalizeSubmitRequest(req)

	assert.Len(t, req.Prompt, 100_000)
}

func TestValidateJobIDParam(t *testing.T) {
	validator := NewAPIValidator()

	id := uuid.New()
	parsed, result := validator.ValidateJobIDParam(id.String())
	assert.True(t, result.Valid)
	assert.Equal(t, id, parsed)

	for _, raw := range []string{"", "not-a-uuid", "1234", id.String() + "x"} {
		parsed, result := validator.ValidateJobIDParam(raw)
		assert.False(t, result.Valid, "should reject %q", raw)
		assert.Equal(t, uuid.Nil, parsed)
		assert.Equal(t, "id", result.Errors[0].Field)
	}
}

func TestValidateListParams(t *testing.T) {
	validator := NewAPIValidator()

	for _, status := range []string{"", "pending", "processing", "completed", "failed"} {
		result := validator.ValidateListParams(status, 100)
		assert.True(t, result.Valid, "status %q should be accepted", status)
	}

	result := validator.ValidateListParams("archived", 100)
	assert.False(t, result.Valid)
	assert.Equal(t, "status", result.Errors[0].Field)

	result = validator.ValidateListParams("", -1)
	assert.False(t, result.Valid)
	assert.Equal(t, "limit", result.Errors[0].Field)

	result = validator.ValidateListParams("", 1001)
	assert.False(t, result.Valid)
}
