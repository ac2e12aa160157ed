package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"docvault/internal/scanner/pipeline"
	"docvault/internal/scanner/session"
	"docvault/internal/scanner/vault"
	"docvault/internal/shared/server/respond"
)

const defaultTimeout = 30 * time.Second

// Client talks to the docvault API. It implements the authentication,
// object storage and row-store collaborator contracts consumed by the
// client core, with a file-backed session cache for persisted logins.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *sessionCache

	mu    sync.Mutex
	token string
	subs  []chan<- session.Change
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCachePath sets the session cache location.
func WithCachePath(path string) Option {
	return func(c *Client) { c.cache = newSessionCache(path) }
}

// New constructs a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   newSessionCache(defaultCachePath()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is a decoded standardized error body.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// CurrentSession restores a cached login and validates it against the API.
func (c *Client) CurrentSession(ctx context.Context) (session.Session, bool, error) {
	cached, ok, err := c.cache.load()
	if err != nil || !ok {
		return session.Session{}, false, err
	}

	c.setToken(cached.Token)
	var resp struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
		Name   string `json:"name"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/session", nil, &resp); err != nil {
		c.setToken("")
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// Expired or revoked cache entry; drop it.
			_ = c.cache.clear()
			return session.Session{}, false, nil
		}
		return session.Session{}, false, err
	}

	return session.Session{
		Token:  cached.Token,
		UserID: resp.UserID,
		Email:  resp.Email,
		Name:   resp.Name,
	}, true, nil
}

// SignIn exchanges credentials for a session, caches it, and notifies
// subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"fullName"`
		} `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signin", body, &resp); err != nil {
		return session.Session{}, err
	}

	sess := session.Session{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Email:  resp.User.Email,
		Name:   resp.User.Name,
	}

	c.setToken(resp.Token)
	if err := c.cache.save(cachedSession{Token: resp.Token, UserID: sess.UserID, Email: sess.Email}); err != nil {
		return session.Session{}, fmt.Errorf("persist session: %w", err)
	}

	c.emit(session.Change{Session: sess, Present: true})
	return sess, nil
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signup", body, nil)
}

// SignOut discards the local session and tells the server best-effort. A
// failing server call still clears the cached login.
func (c *Client) SignOut(ctx context.Context) error {
	serverErr := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/signout", nil, nil)

	c.setToken("")
	if err := c.cache.clear(); err != nil {
		return err
	}
	c.emit(session.Change{Present: false})
	return serverErr
}

// Subscribe registers a channel for auth changes emitted by this client.
func (c *Client) Subscribe(ch chan<- session.Change) func() {
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Upload stores raw bytes under bucket/key.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	endpoint := c.baseURL + "/api/v1/storage/" + url.PathEscape(bucket) + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

// PublicReference resolves the durable public URL of a stored object.
func (c *Client) PublicReference(ctx context.Context, bucket, key string) (string, error) {
	var resp struct {
		PublicURL string `json:"publicUrl"`
	}
	path := "/api/v1/storage/" + url.PathEscape(bucket) + "/" + key
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.PublicURL == "" {
		return "", fmt.Errorf("no public url for %s/%s", bucket, key)
	}
	return resp.PublicURL, nil
}

// InsertDocument creates a metadata record owned by the signed-in user.
func (c *Client) InsertDocument(ctx context.Context, rec pipeline.NewRecord) (pipeline.Record, error) {
	body := map[string]string{
		"title":    rec.Title,
		"docType":  rec.DocType,
		"imageUrl": rec.ImageURL,
	}
	var resp documentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/documents", body, &resp); err != nil {
		return pipeline.Record{}, err
	}
	return pipeline.Record{
		ID:        resp.ID,
		Title:     resp.Title,
		DocType:   resp.DocType,
		ImageURL:  resp.ImageURL,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// ListDocuments fetches the user's records, optionally narrowed by type.
func (c *Client) ListDocuments(ctx context.Context, docType string, limit int) ([]vault.Document, error) {
	q := url.Values{}
	if docType != "" {
		q.Set("docType", docType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/documents"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp []documentResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	docs := make([]vault.Document, 0, len(resp))
	for _, d := range resp {
		docs = append(docs, vault.Document{
			ID:        d.ID,
			Title:     d.Title,
			DocType:   d.DocType,
			ImageURL:  d.ImageURL,
			CreatedAt: d.CreatedAt,
		})
	}
	return docs, nil
}

type documentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DocType   string    `json:"docType"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) emit(change session.Change) {
	c.mu.Lock()
	subs := make([]chan<- session.Change, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		sub <- change
	}
}

func decodeAPIError(resp *http.Response) error {
	var body respond.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error.Message != "" {
		return &apiError{Status: resp.StatusCode, Code: body.Error.Code, Message: body.Error.Message}
	}
	return &apiError{Status: resp.StatusCode}
}

var (
	_ session.Authenticator = (*Client)(nil)
	_ pipeline.ObjectStore  = (*Client)(nil)
	_ pipeline.Recorder     = (*Client)(nil)
	_ vault.Source          = (*Client)(nil)
)
