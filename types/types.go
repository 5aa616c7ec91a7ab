package types

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the single persisted summary slot.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`  // uploaded file name
	Content   string    `json:"content"` // model produced summary
	CreatedAt time.Time `json:"created_at"`
}

func NewSummary(source, content string) Summary {
	return Summary{
		ID:        uuid.New(),
		Source:    source,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
