package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eve.evalgo.org/kernel/internal/kernel"
)

// CreateDocumentsBundle handles PUT /bundles/{id}.
func (h *Handlers) CreateDocumentsBundle(c echo.Context) error {
	id := c.Param("id")
	var req createJournalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := kernel.CreateDocumentsBundle(c.Request().Context(), h.Session, id, req.Metadata); err != nil {
		return writeError(c, err)
	}

	m, err := kernel.FetchDocumentsBundleManifest(c.Request().Context(), h.Session, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// AddDocumentToBundle handles PUT /bundles/{bundle_id}/documents/{doc_id}.
func (h *Handlers) AddDocumentToBundle(c echo.Context) error {
	bundleID := c.Param("bundle_id")
	docID := c.Param("doc_id")
	var req addReferenceRequest
	_ = c.Bind(&req)

	if err := kernel.AddDocumentToDocumentsBundle(c.Request().Context(), h.Session, bundleID, docID, req.NS); err != nil {
		return writeError(c, err)
	}

	m, err := kernel.FetchDocumentsBundleManifest(c.Request().Context(), h.Session, bundleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
