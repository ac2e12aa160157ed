package documents

import "context"

// Query narrows a user-scoped listing. DocType "" or "All" matches every
// type; otherwise the match is a case-insensitive substring. Limit caps the
// result count; zero means the repo default.
type Query struct {
	DocType string
	Limit   int
}

// Repo defines persistence operations for document records.
// Listings are ordered newest-first by creation time, ties broken by ID.
type Repo interface {
	Insert(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, q Query) ([]Document, error)
}
