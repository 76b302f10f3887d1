package operations

import (
	"context"

	"github.com/google/uuid"
)

// History is the read side of the journal.
type History struct {
	journal *Journal
}

func NewHistory(journal *Journal) *History {
	return &History{journal: journal}
}

func (h *History) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return h.journal.Get(ctx, id)
}

// ListByPath returns the newest records of path first.
func (h *History) ListByPath(ctx context.Context, path string, limit int) ([]Record, error) {
	return h.journal.ListByPath(ctx, path, limit)
}
