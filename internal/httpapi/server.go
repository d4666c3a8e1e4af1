package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"eve.evalgo.org/kernel/internal/kernel"
)

// Handlers bundles the session every request handler dispatches into,
// mirroring the teacher's api/rest.go Handlers struct (one struct of
// collaborator handles, no handler carries its own state).
type Handlers struct {
	Session *kernel.Session
}

// NewHandlers wraps sess as the HTTP layer's single collaborator.
func NewHandlers(sess *kernel.Session) *Handlers {
	return &Handlers{Session: sess}
}

// SetupRoutes registers every endpoint spec.md §6.1 lists. apiKey/jwtSecret
// empty disables the corresponding auth middleware (local/dev use).
func SetupRoutes(e *echo.Echo, h *Handlers, apiKey, jwtSecret string) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", h.Health)

	v1 := e.Group("")
	v1.Use(APIKeyAuth(apiKey))
	v1.Use(BearerAuth(jwtSecret))

	v1.PUT("/documents/:id", h.RegisterDocument)
	v1.GET("/documents/:id", h.FetchDocument)
	v1.GET("/documents/:id/assets", h.FetchDocumentAssets)
	v1.PUT("/documents/:id/assets/:slot", h.BindAsset)
	v1.PUT("/documents/:id/renditions/:slot", h.BindRendition)

	v1.PUT("/journals/:id", h.CreateJournal)
	v1.PATCH("/journals/:id/metadata", h.UpdateJournalMetadata)
	v1.PUT("/journals/:journal_id/bundles/:bundle_id", h.AddBundleToJournal)

	v1.PUT("/bundles/:id", h.CreateDocumentsBundle)
	v1.PUT("/bundles/:bundle_id/documents/:doc_id", h.AddDocumentToBundle)

	v1.GET("/changes", h.FetchChanges)
}

// Health reports 200 unconditionally; a readiness probe would extend this
// with a CouchDB ping, left to deployment-specific wiring.
func (h *Handlers) Health(c echo.Context) error {
	return c.NoContent(200)
}
