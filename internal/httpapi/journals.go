package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eve.evalgo.org/kernel/internal/kernel"
)

type createJournalRequest struct {
	Metadata map[string]any `json:"metadata"`
}

// CreateJournal handles PUT /journals/{id}.
func (h *Handlers) CreateJournal(c echo.Context) error {
	id := c.Param("id")
	var req createJournalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := kernel.CreateJournal(c.Request().Context(), h.Session, id, req.Metadata); err != nil {
		return writeError(c, err)
	}

	m, err := kernel.FetchJournalManifest(c.Request().Context(), h.Session, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

type updateJournalMetadataRequest struct {
	Set   map[string]any `json:"set"`
	Clear []string       `json:"clear"`
}

// UpdateJournalMetadata handles PATCH /journals/{id}/metadata.
func (h *Handlers) UpdateJournalMetadata(c echo.Context) error {
	id := c.Param("id")
	var req updateJournalMetadataRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := kernel.UpdateJournalMetadata(c.Request().Context(), h.Session, id, req.Set, req.Clear); err != nil {
		return writeError(c, err)
	}

	m, err := kernel.FetchJournalManifest(c.Request().Context(), h.Session, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type addReferenceRequest struct {
	NS []string `json:"ns"`
}

// AddBundleToJournal handles PUT /journals/{journal_id}/bundles/{bundle_id}.
func (h *Handlers) AddBundleToJournal(c echo.Context) error {
	journalID := c.Param("journal_id")
	bundleID := c.Param("bundle_id")
	var req addReferenceRequest
	_ = c.Bind(&req) // an empty/absent body is valid: ns is optional

	if err := kernel.AddDocumentsBundleToJournal(c.Request().Context(), h.Session, journalID, bundleID, req.NS); err != nil {
		return writeError(c, err)
	}

	m, err := kernel.FetchJournalManifest(c.Request().Context(), h.Session, journalID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
