package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docvault/internal/accounts"
	"docvault/internal/documents"
	"docvault/internal/objects"
	"docvault/internal/scanner/camera"
	"docvault/internal/scanner/pipeline"
	"docvault/internal/scanner/session"
	"docvault/internal/scanner/vault"
	"docvault/internal/shared/config"
	"docvault/internal/shared/server"
	"docvault/internal/shared/storage/object/local"
)

// newTestServer stands up the real API router with in-memory repositories
// and a local object store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var engine *gin.Engine
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	store := local.New(t.TempDir(), srv.URL)
	accountsSvc := accounts.NewService(accounts.NewMemoryRepo())
	docSvc := &documents.Service{
		Repo:       documents.NewMemoryRepo(),
		Store:      store,
		FileBucket: "doc_files",
	}

	engine = server.NewRouter(server.RouterDeps{
		Config:          config.Config{Env: "dev"},
		AccountsHandler: accounts.NewHandler(accountsSvc),
		DocumentHandler: documents.NewHandler(docSvc),
		ObjectsHandler:  objects.NewHandler(store),
	})
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(srv.URL, WithCachePath(filepath.Join(t.TempDir(), "session.json")))
}

func signUpAndIn(t *testing.T, c *Client) session.Session {
	t.Helper()
	ctx := context.Background()
	if err := c.SignUp(ctx, "scanner@example.com", "hunter22pass"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	sess, err := c.SignIn(ctx, "scanner@example.com", "hunter22pass")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return sess
}

func TestSignInEmitsChangeAndPersistsSession(t *testing.T) {
	srv := newTestServer(t)
	cachePath := filepath.Join(t.TempDir(), "session.json")
	c := New(srv.URL, WithCachePath(cachePath))

	changes := make(chan session.Change, 4)
	cancel := c.Subscribe(changes)
	defer cancel()

	sess := signUpAndIn(t, c)
	if sess.Token == "" || sess.UserID == "" {
		t.Fatalf("incomplete session %+v", sess)
	}

	select {
	case change := <-changes:
		if !change.Present || change.Session.UserID != sess.UserID {
			t.Fatalf("unexpected change %+v", change)
		}
	default:
		t.Fatalf("sign-in emitted no change")
	}

	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("session cache not written: %v", err)
	}

	// A fresh client with the same cache restores the login.
	restored := New(srv.URL, WithCachePath(cachePath))
	got, present, err := restored.CurrentSession(context.Background())
	if err != nil || !present {
		t.Fatalf("CurrentSession: present=%v err=%v", present, err)
	}
	if got.UserID != sess.UserID {
		t.Fatalf("restored user %q, want %q", got.UserID, sess.UserID)
	}
}

func TestSignOutClearsSessionEvenIfServerIsGone(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	signUpAndIn(t, c)

	changes := make(chan session.Change, 4)
	cancel := c.Subscribe(changes)
	defer cancel()

	srv.Close()
	_ = c.SignOut(context.Background())

	select {
	case change := <-changes:
		if change.Present {
			t.Fatalf("sign-out change still carries a session")
		}
	default:
		t.Fatalf("sign-out emitted no change")
	}

	if _, present, err := c.CurrentSession(context.Background()); err == nil && present {
		t.Fatalf("session survived sign-out")
	}
}

func TestCurrentSessionWithoutCache(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	_, present, err := c.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if present {
		t.Fatalf("expected no session for a fresh client")
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	if err := c.SignUp(context.Background(), "scanner@example.com", "hunter22pass"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, err := c.SignIn(context.Background(), "scanner@example.com", "wrong-password")
	if err == nil {
		t.Fatalf("expected sign-in failure")
	}
	if !strings.Contains(err.Error(), "invalid email or password") {
		t.Fatalf("expected the server's message, got %q", err.Error())
	}
}

func TestEndToEndScanFlow(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	signUpAndIn(t, c)

	framePath := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(framePath, []byte("\xff\xd8fake-jpeg"), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	p := pipeline.New(camera.FileCamera{Path: framePath}, c, c)
	rec, err := p.Scan(context.Background(), "PAN")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if rec.DocType != "PAN" || rec.Title != "PAN Scan" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !strings.Contains(rec.ImageURL, "/files/doc_images/") {
		t.Fatalf("image url %q not under the public files route", rec.ImageURL)
	}

	// The uploaded frame is publicly dereferenceable.
	resp, err := http.Get(rec.ImageURL)
	if err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("image fetch status = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != "\xff\xd8fake-jpeg" {
		t.Fatalf("served frame does not match capture")
	}

	// The vault sees the new record.
	v := vault.NewService(c)
	docs, err := v.Browse(context.Background(), vault.Filter{Type: "PAN"})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != rec.ID {
		t.Fatalf("vault does not show the scanned record: %+v", docs)
	}
}

func TestListDocumentsTypeFilter(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	signUpAndIn(t, c)

	ctx := context.Background()
	for _, docType := range []string{"PAN", "Aadhar", "PAN"} {
		_, err := c.InsertDocument(ctx, pipeline.NewRecord{DocType: docType, ImageURL: "http://x/y.jpg"})
		if err != nil {
			t.Fatalf("InsertDocument: %v", err)
		}
	}

	docs, err := c.ListDocuments(ctx, "pan", 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 PAN docs, got %d", len(docs))
	}

	all, err := c.ListDocuments(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListDocuments all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(all))
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	_, err := c.ListDocuments(context.Background(), "", 0)
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
}
