package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // userId -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Document)}
}

// Insert stores a new document for its owner.
func (r *MemoryRepo) Insert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.UserID] = append(r.data[doc.UserID], doc)
	return nil
}

// GetByID returns a document by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.data[userID] {
		if doc.ID == documentID {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

// ListByUser returns a user's documents newest first, honoring the query.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	userDocs := r.data[userID]
	r.mu.RUnlock()

	filter := strings.ToLower(normalizeTypeFilter(q.DocType))
	docs := make([]Document, 0, len(userDocs))
	for _, doc := range userDocs {
		if filter != "" && !strings.Contains(strings.ToLower(doc.DocType), filter) {
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})

	if limit := clampLimit(q.Limit); len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// normalizeTypeFilter maps "" and "All" to no filter.
func normalizeTypeFilter(docType string) string {
	trimmed := strings.TrimSpace(docType)
	if trimmed == "" || strings.EqualFold(trimmed, "All") {
		return ""
	}
	return trimmed
}

var _ Repo = (*MemoryRepo)(nil)
