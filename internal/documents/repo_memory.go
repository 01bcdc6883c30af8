package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
		now:  time.Now,
	}
}

// Create stores doc under a fresh id.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = uuid.NewString()
	doc.TextractJob = ""
	doc.CreatedAt = r.now().UTC()
	r.data[doc.ID] = doc
	return doc, nil
}

// GetByID returns a document by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

// SetTextractJob records the analysis job id on the user's document.
func (r *MemoryRepo) SetTextractJob(ctx context.Context, userID, id, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	doc.TextractJob = jobID
	r.data[id] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
