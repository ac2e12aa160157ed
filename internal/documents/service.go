package documents

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/extract"
	"docvault/internal/shared/storage/object"
	"docvault/internal/shared/util"
)

// NewDocument carries caller-supplied fields for an insert.
type NewDocument struct {
	Title    string
	DocType  string
	ImageURL string
}

// Service contains business logic for document records.
type Service struct {
	Repo       Repo
	Store      object.Store
	FileBucket string
}

// Insert validates and stores a new document record. The title defaults to
// "<DocType> Scan" when absent.
func (s *Service) Insert(ctx context.Context, userID string, in NewDocument) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, ErrInvalidInput
	}
	docType := strings.TrimSpace(in.DocType)
	if docType == "" || strings.EqualFold(docType, "All") {
		return Document{}, ErrInvalidInput
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = docType + " Scan"
	}

	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		DocType:   docType,
		ImageURL:  strings.TrimSpace(in.ImageURL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Insert(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get fetches one document scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(documentID) == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the user's documents newest first, optionally narrowed to a
// document type ("All" and "" disable the filter).
func (s *Service) List(ctx context.Context, userID, docType string, limit int) ([]Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, Query{DocType: docType, Limit: limit})
}

// ImportPDF stores an existing PDF in the vault: the payload goes to object
// storage under the user's namespace and a record is inserted with a title
// derived from the PDF text (file name as fallback).
func (s *Service) ImportPDF(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, ErrInvalidInput
	}
	if s.Store == nil || s.FileBucket == "" {
		return Document{}, fmt.Errorf("document import not configured")
	}

	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, ErrInvalidInput
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read payload: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return Document{}, ErrInvalidInput
	}

	key := path.Join(util.HashUserKey(userID), fmt.Sprintf("%s_%s", randomID(), sanitizedName))
	if _, err := s.Store.Put(ctx, s.FileBucket, key, "application/pdf", bytes.NewReader(data)); err != nil {
		return Document{}, fmt.Errorf("store pdf: %w", err)
	}
	publicURL, err := s.Store.PublicURL(s.FileBucket, key)
	if err != nil {
		return Document{}, fmt.Errorf("resolve pdf url: %w", err)
	}

	title := ""
	if text, err := extract.PDFText(ctx, data); err == nil {
		title = extract.TitleFromText(text)
	}
	if title == "" {
		title = strings.TrimSuffix(sanitizedName, path.Ext(sanitizedName))
	}

	return s.Insert(ctx, userID, NewDocument{
		Title:    title,
		DocType:  "Academic",
		ImageURL: publicURL,
	})
}

func randomID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
