package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perceptlab/study-engine/internal/db"
	"github.com/perceptlab/study-engine/internal/identity"
)

// errorKind enumerates every failure the HTTP surface can report. Handlers
// produce appError values; writeError is the only place kinds become status
// codes and bodies.
type errorKind int

const (
	errValidation errorKind = iota + 1
	errConsentRequired
	errPaymentRequired
	errNotFound
	errConflict
	errPayloadTooLarge
	errUnsupportedMedia
	errRateLimited
	errInternal
	errUnavailable
)

type appError struct {
	kind  errorKind
	msg   string
	cause error // underlying failure, logged but never sent to the client
}

func (e *appError) Error() string { return e.msg }

func (e *appError) Unwrap() error { return e.cause }

func newError(kind errorKind, format string, args ...any) *appError {
	return &appError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *appError) status() int {
	switch e.kind {
	case errValidation:
		return http.StatusBadRequest
	case errConsentRequired:
		return http.StatusForbidden
	case errPaymentRequired:
		return http.StatusPaymentRequired
	case errNotFound:
		return http.StatusNotFound
	case errConflict:
		return http.StatusConflict
	case errPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case errUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case errRateLimited:
		return http.StatusTooManyRequests
	case errUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fromStorage maps storage sentinels onto the HTTP taxonomy. Anything that is
// not a sentinel is a transient database failure and surfaces as 503; the
// caller supplies the message for the not-found case since it knows which
// entity was being looked up.
func fromStorage(err error, notFoundMsg string) *appError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return newError(errNotFound, "%s", notFoundMsg)
	case errors.Is(err, db.ErrAlreadyExists):
		return newError(errConflict, "Resource already exists")
	case errors.Is(err, db.ErrAlreadyConfirmed):
		return newError(errConflict, "Payment already confirmed with a different payment id")
	case errors.Is(err, db.ErrConflict):
		return newError(errConflict, "Conflicting duplicate request")
	case errors.Is(err, db.ErrEmptyCatalog):
		return newError(errNotFound, "No images available")
	default:
		return &appError{kind: errUnavailable, msg: "Service temporarily unavailable", cause: err}
	}
}

// writeError serializes an error and aborts the request. Internal and
// transient failures are logged with a correlation id; the client never sees
// the underlying error text for those.
func (h *APIHandler) writeError(c *gin.Context, err error) {
	var app *appError
	if !errors.As(err, &app) {
		app = fromStorage(err, "Resource not found")
	}

	switch app.kind {
	case errInternal:
		corr := identity.NewID()
		log.Printf("[API] Internal error %s on %s %s: %v", corr, c.Request.Method, c.Request.URL.Path, err)
		c.JSON(app.status(), gin.H{"error": "Internal server error", "correlation_id": corr})
	case errUnavailable:
		corr := identity.NewID()
		cause := err
		if app.cause != nil {
			cause = app.cause
		}
		log.Printf("[API] Storage error %s on %s %s: %v", corr, c.Request.Method, c.Request.URL.Path, cause)
		c.Header("Retry-After", "1")
		c.JSON(app.status(), gin.H{"error": app.msg, "correlation_id": corr})
	default:
		c.JSON(app.status(), gin.H{"error": app.msg})
	}
	c.Abort()
}

// bindJSON decodes a request body into dst, translating decode failures into
// the taxonomy. The body reader is capped by the size-limit middleware, so an
// oversized payload shows up here as a MaxBytesError.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return newError(errPayloadTooLarge, "Request body exceeds %d bytes", tooLarge.Limit)
		}
		return newError(errValidation, "Invalid request body")
	}
	return nil
}
