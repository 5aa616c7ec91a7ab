package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  AskParams
		wantErr bool
	}{
		{name: "nil questions", params: AskParams{}, wantErr: true},
		{name: "empty questions", params: AskParams{Questions: []string{}}, wantErr: true},
		{name: "one question", params: AskParams{Questions: []string{"What is it?"}}},
		{name: "several questions", params: AskParams{Questions: []string{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.params)
			if tt.wantErr {
				assert.Contains(t, errs, "Questions")
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestNewSummary(t *testing.T) {
	a := NewSummary("doc.pdf", "text")
	b := NewSummary("doc.pdf", "text")

	assert.Equal(t, "doc.pdf", a.Source)
	assert.Equal(t, "text", a.Content)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}
