package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"eve.evalgo.org/kernel/internal/changes"
	"eve.evalgo.org/kernel/internal/kernel"
	"eve.evalgo.org/kernel/internal/kernelerr"
)

type assetRef struct {
	AssetID  string `json:"asset_id"`
	AssetURL string `json:"asset_url"`
}

type registerDocumentRequest struct {
	Data       string     `json:"data"`
	Assets     []assetRef `json:"assets"`
	Renditions []assetRef `json:"renditions,omitempty"`
}

// RegisterDocument handles PUT /documents/{id}: registers the document if
// unseen, then appends a version declaring the given asset/rendition
// slots and binds each slot's initial URI (spec.md §6.1).
func (h *Handlers) RegisterDocument(c echo.Context) error {
	id := c.Param("id")
	var req registerDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Data == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "data is required"})
	}

	ctx := c.Request().Context()
	if _, err := kernel.FetchDocumentManifest(ctx, h.Session, id); err != nil {
		if !errors.Is(err, kernelerr.ErrNotFound) {
			return writeError(c, err)
		}
		if _, err := kernel.RegisterDocument(ctx, h.Session, id); err != nil {
			return writeError(c, err)
		}
	}

	assetSlots := make([]string, len(req.Assets))
	for i, a := range req.Assets {
		assetSlots[i] = a.AssetID
	}
	renditionSlots := make([]string, len(req.Renditions))
	for i, r := range req.Renditions {
		renditionSlots[i] = r.AssetID
	}

	if err := kernel.RegisterDocumentVersion(ctx, h.Session, id, req.Data, assetSlots, renditionSlots); err != nil {
		return writeError(c, err)
	}
	for _, a := range req.Assets {
		if a.AssetURL == "" {
			continue
		}
		if err := kernel.RegisterAssetVersion(ctx, h.Session, id, a.AssetID, a.AssetURL); err != nil {
			return writeError(c, err)
		}
	}
	for _, r := range req.Renditions {
		if r.AssetURL == "" {
			continue
		}
		if err := kernel.RegisterRenditionVersion(ctx, h.Session, id, r.AssetID, r.AssetURL); err != nil {
			return writeError(c, err)
		}
	}

	m, err := kernel.FetchDocumentManifest(ctx, h.Session, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// FetchDocument handles GET /documents/{id}?version=&when=. An
// Accept: text/xml request redirects to the resolved version's data URI
// instead of returning the manifest.
func (h *Handlers) FetchDocument(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	var index *int
	if v := c.QueryParam("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "version must be an integer"})
		}
		n-- // 1-indexed on the wire, 0-indexed internally
		index = &n
	}

	var at *time.Time
	if w := c.QueryParam("when"); w != "" {
		t, err := changes.ParseTimestamp(w)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "when must be an ISO-8601 timestamp"})
		}
		at = &t
	}

	if index != nil && at != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "version and when are mutually exclusive"})
	}

	if index != nil || at != nil {
		v, err := kernel.FetchDocumentVersion(ctx, h.Session, id, index, at)
		if err != nil {
			return writeError(c, err)
		}
		if c.Request().Header.Get("Accept") == "text/xml" {
			return c.Redirect(http.StatusFound, v.Data)
		}
		return c.JSON(http.StatusOK, v)
	}

	m, err := kernel.FetchDocumentManifest(ctx, h.Session, id)
	if err != nil {
		return writeError(c, err)
	}
	if c.Request().Header.Get("Accept") == "text/xml" && len(m.Versions) > 0 {
		return c.Redirect(http.StatusFound, m.Versions[len(m.Versions)-1].Data)
	}
	return c.JSON(http.StatusOK, m)
}

// FetchDocumentAssets handles GET /documents/{id}/assets: the current
// version's asset slot map.
func (h *Handlers) FetchDocumentAssets(c echo.Context) error {
	id := c.Param("id")
	v, err := kernel.FetchDocumentVersion(c.Request().Context(), h.Session, id, nil, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v.Assets)
}

type bindAssetRequest struct {
	AssetURL string `json:"asset_url"`
}

// BindAsset handles PUT /documents/{id}/assets/{slot}.
func (h *Handlers) BindAsset(c echo.Context) error {
	id, slot := c.Param("id"), c.Param("slot")
	var req bindAssetRequest
	if err := c.Bind(&req); err != nil || req.AssetURL == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "asset_url is required"})
	}

	ctx := c.Request().Context()
	if err := kernel.RegisterAssetVersion(ctx, h.Session, id, slot, req.AssetURL); err != nil {
		return writeError(c, err)
	}
	v, err := kernel.FetchDocumentVersion(ctx, h.Session, id, nil, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// BindRendition handles PUT /documents/{id}/renditions/{slot}.
func (h *Handlers) BindRendition(c echo.Context) error {
	id, slot := c.Param("id"), c.Param("slot")
	var req bindAssetRequest
	if err := c.Bind(&req); err != nil || req.AssetURL == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "asset_url is required"})
	}

	ctx := c.Request().Context()
	if err := kernel.RegisterRenditionVersion(ctx, h.Session, id, slot, req.AssetURL); err != nil {
		return writeError(c, err)
	}
	v, err := kernel.FetchDocumentVersion(ctx, h.Session, id, nil, nil)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
