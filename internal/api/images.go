package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/db"
)

// imageParam returns the wildcard path without its leading slash.
func imageParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("image_id"), "/")
}

// handleImages serves both image routes. gin's router cannot keep a static
// sibling next to a wildcard, so /api/images/random and /api/images/{id}
// share one route and split here.
func (h *APIHandler) handleImages(c *gin.Context) {
	imageID := imageParam(c)
	if imageID == "random" {
		h.serveRandomImage(c)
		return
	}
	h.serveImageFile(c, imageID)
}

// serveRandomImage draws uniformly from the catalog, excluding images this
// session has seen within the exclusion TTL. An exhausted session is reset
// and the next draw is unconstrained.
func (h *APIHandler) serveRandomImage(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		h.writeError(c, newError(errValidation, "session_id is required"))
		return
	}

	ctx := c.Request.Context()
	exclude := h.sessions.Exclusions(sessionID)
	img, err := h.store.PickRandomImage(ctx, exclude)
	if errors.Is(err, db.ErrEmptyCatalog) && len(exclude) > 0 {
		h.sessions.Reset(sessionID)
		img, err = h.store.PickRandomImage(ctx, nil)
	}
	if err != nil {
		h.writeError(c, fromStorage(err, "No images available"))
		return
	}

	h.sessions.MarkServed(sessionID, img.ImageID)
	c.JSON(http.StatusOK, gin.H{"image_id": img.ImageID, "image_url": img.ImageURL})
}

// serveImageFile hands static bytes off the images directory. The catalog is
// not consulted; file existence is the only check, and missing files are 404
// even when a catalog row exists.
func (h *APIHandler) serveImageFile(c *gin.Context, imageID string) {
	if imageID == "" {
		h.writeError(c, newError(errNotFound, "Image not found"))
		return
	}

	full := filepath.Join(h.cfg.ImagesDir, filepath.FromSlash(imageID))
	rel, err := filepath.Rel(h.cfg.ImagesDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		h.writeError(c, newError(errNotFound, "Image not found"))
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		h.writeError(c, newError(errNotFound, "Image not found"))
		return
	}

	c.Header("Cache-Control", "public, max-age=604800, immutable")
	c.File(full)
}

// handleAttentionLookup tells the client whether an image is an active
// attention check and which keyword it expects.
func (h *APIHandler) handleAttentionLookup(c *gin.Context) {
	imageID := strings.TrimSpace(c.Query("image_id"))
	if imageID == "" {
		h.writeError(c, newError(errValidation, "image_id is required"))
		return
	}

	check, err := h.store.GetAttentionCheck(c.Request.Context(), imageID)
	if err != nil {
		h.writeError(c, fromStorage(err, "No attention check for this image"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"image_id":         imageID,
		"expected_keyword": check.ExpectedKeyword,
		"strict":           check.Strict,
	})
}
