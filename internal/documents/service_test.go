package documents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func insertAt(t *testing.T, repo Repo, id, userID, title, docType string, at time.Time) {
	t.Helper()
	err := repo.Insert(context.Background(), Document{
		ID:        id,
		UserID:    userID,
		Title:     title,
		DocType:   docType,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestInsertDefaultsTitle(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	doc, err := svc.Insert(context.Background(), "user-1", NewDocument{DocType: "PAN"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if doc.Title != "PAN Scan" {
		t.Fatalf("expected defaulted title, got %q", doc.Title)
	}
	if doc.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestInsertRequiresDocType(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	if _, err := svc.Insert(context.Background(), "user-1", NewDocument{Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Insert(context.Background(), "user-1", NewDocument{DocType: "All"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for reserved type, got %v", err)
	}
}

func TestListNewestFirstWithIDTieBreak(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	insertAt(t, repo, "a", "user-1", "Old", "PAN", base)
	insertAt(t, repo, "b", "user-1", "Tie low", "PAN", base.Add(time.Hour))
	insertAt(t, repo, "c", "user-1", "Tie high", "PAN", base.Add(time.Hour))
	insertAt(t, repo, "d", "user-1", "New", "PAN", base.Add(2*time.Hour))

	docs, err := svc.List(context.Background(), "user-1", "All", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var ids []string
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	want := []string{"d", "c", "b", "a"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", ids, want)
		}
	}

	for i := 1; i < len(docs); i++ {
		if docs[i].CreatedAt.After(docs[i-1].CreatedAt) {
			t.Fatalf("creation timestamps must be non-increasing")
		}
	}
}

func TestListTypeFilterCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	now := time.Now().UTC()

	insertAt(t, repo, "1", "user-1", "Tax card", "PAN", now)
	insertAt(t, repo, "2", "user-1", "ID card", "Aadhar", now.Add(time.Second))
	insertAt(t, repo, "3", "user-1", "Old tax card", "pan", now.Add(2*time.Second))

	docs, err := svc.List(context.Background(), "user-1", "pAn", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 PAN documents, got %d", len(docs))
	}

	all, err := svc.List(context.Background(), "user-1", "All", 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	none, err := svc.List(context.Background(), "user-1", "", 0)
	if err != nil {
		t.Fatalf("List unfiltered: %v", err)
	}
	if len(all) != len(none) || len(all) != 3 {
		t.Fatalf(`"All" must equal no filter: all=%d none=%d`, len(all), len(none))
	}
}

func TestListScopedToOwner(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	now := time.Now().UTC()

	insertAt(t, repo, "mine", "user-1", "Mine", "PAN", now)
	insertAt(t, repo, "theirs", "user-2", "Theirs", "PAN", now)

	docs, err := svc.List(context.Background(), "user-1", "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "mine" {
		t.Fatalf("expected only the owner's documents, got %+v", docs)
	}
}

func TestListLimitCap(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	now := time.Now().UTC()

	insertAt(t, repo, "1", "user-1", "a", "PAN", now)
	insertAt(t, repo, "2", "user-1", "b", "PAN", now.Add(time.Second))
	insertAt(t, repo, "3", "user-1", "c", "PAN", now.Add(2*time.Second))

	docs, err := svc.List(context.Background(), "user-1", "", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(docs))
	}
	if docs[0].ID != "3" {
		t.Fatalf("expected newest first under limit, got %s", docs[0].ID)
	}
}
