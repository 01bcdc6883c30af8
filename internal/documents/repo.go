package documents

import "context"

// Repo defines persistence operations for documents. Every lookup and
// mutation is scoped to the owning user.
type Repo interface {
	// Create inserts doc and returns it with the generated ID and CreatedAt.
	Create(ctx context.Context, doc Document) (Document, error)
	GetByID(ctx context.Context, userID, id string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// SetTextractJob attaches jobID to the document and returns ErrNotFound when
	// the user owns no document with that id.
	SetTextractJob(ctx context.Context, userID, id, jobID string) error
}
