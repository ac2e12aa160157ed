package vault

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FilterAll disables the type filter.
const FilterAll = "All"

// Categories is the document type set offered by the vault UI.
var Categories = []string{FilterAll, "Aadhar", "PAN", "License", "Academic", "Other"}

// HomePreviewLimit caps the recent-documents strip on the home screen.
const HomePreviewLimit = 5

// Document is one vault entry.
type Document struct {
	ID        string
	Title     string
	DocType   string
	ImageURL  string
	CreatedAt time.Time
}

// Filter narrows a browse request. Type "All" or "" matches every type;
// Search is a case-insensitive title substring applied client-side.
type Filter struct {
	Type   string
	Search string
	Limit  int
}

// Source is the row-store collaborator contract. docType "" means no
// filter; results are scoped to the caller's own records.
type Source interface {
	ListDocuments(ctx context.Context, docType string, limit int) ([]Document, error)
}

// Service fetches and narrows the user's documents for display.
type Service struct {
	Source Source
}

// NewService constructs a Service.
func NewService(source Source) *Service {
	return &Service{Source: source}
}

// Browse returns matching documents newest first. A collaborator failure is
// surfaced as an error; an empty result is success.
func (s *Service) Browse(ctx context.Context, f Filter) ([]Document, error) {
	docType := normalizeType(f.Type)

	docs, err := s.Source.ListDocuments(ctx, docType, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("vault query: %w", err)
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		needle := strings.ToLower(search)
		filtered := docs[:0]
		for _, doc := range docs {
			if strings.Contains(strings.ToLower(doc.Title), needle) {
				filtered = append(filtered, doc)
			}
		}
		docs = filtered
	}

	// Ordering is a contract of the result set, not a trust in the source.
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})

	return docs, nil
}

// RecentForHome returns the home screen preview slice.
func (s *Service) RecentForHome(ctx context.Context) ([]Document, error) {
	return s.Browse(ctx, Filter{Limit: HomePreviewLimit})
}

func normalizeType(docType string) string {
	trimmed := strings.TrimSpace(docType)
	if trimmed == "" || strings.EqualFold(trimmed, FilterAll) {
		return ""
	}
	return trimmed
}
