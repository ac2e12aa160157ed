package objects

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault/internal/shared/server/respond"
	"docvault/internal/shared/storage/object"
	"docvault/internal/shared/util"
)

const maxUploadSize = 25 << 20 // 25MB

// Handler exposes object storage over HTTP. Authenticated callers write
// through /storage; /files serves stored objects publicly for the local store.
type Handler struct {
	Store object.Store
}

// NewHandler constructs a Handler.
func NewHandler(store object.Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches authenticated storage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/storage/:bucket/*key", h.upload)
	rg.GET("/storage/:bucket/*key", h.publicURL)
}

// RegisterPublicRoutes attaches the unauthenticated file-serving route.
func (h *Handler) RegisterPublicRoutes(r gin.IRouter) {
	r.GET("/files/:bucket/*key", h.serve)
}

func (h *Handler) upload(c *gin.Context) {
	bucket, key, ok := h.resolvePath(c)
	if !ok {
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	defer body.Close()

	size, err := h.Store.Put(c.Request.Context(), bucket, key, contentType, body)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store object", nil)
		return
	}

	publicURL, err := h.Store.PublicURL(bucket, key)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to resolve object url", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"bucket":    bucket,
		"key":       key,
		"size":      size,
		"publicUrl": publicURL,
	})
}

func (h *Handler) publicURL(c *gin.Context) {
	bucket, key, ok := h.resolvePath(c)
	if !ok {
		return
	}

	publicURL, err := h.Store.PublicURL(bucket, key)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "unknown object", nil)
		return
	}
	respond.OK(c, gin.H{"publicUrl": publicURL})
}

func (h *Handler) serve(c *gin.Context) {
	bucket, key, ok := h.resolvePath(c)
	if !ok {
		return
	}

	rc, err := h.Store.Open(c.Request.Context(), bucket, key)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "object not found", nil)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentTypeForKey(key))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) resolvePath(c *gin.Context) (bucket, key string, ok bool) {
	bucket = c.Param("bucket")
	key = strings.TrimPrefix(c.Param("key"), "/")

	if _, err := util.SanitizeFileName(bucket); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid bucket name", nil)
		return "", "", false
	}
	cleaned, err := util.SanitizeObjectKey(key)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid object key", nil)
		return "", "", false
	}
	return bucket, cleaned, true
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
