package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve.evalgo.org/kernel/internal/adapter/memstore"
	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernel"
)

func newTestServer() *echo.Echo {
	sess := kernel.NewSession(
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.DocumentManifest](),
		memstore.NewChanges(),
	)
	e := echo.New()
	SetupRoutes(e, NewHandlers(sess), "", "")
	return e
}

func doJSON(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateJournalEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPut, "/journals/j1", map[string]any{"metadata": map[string]any{"issn": "1234-5678"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	var m entity.ContainerManifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, "1234-5678", m.Metadata["issn"])
}

func TestRegisterDocumentEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPut, "/documents/doc1", map[string]any{
		"data":   "s3://bucket/doc1.xml",
		"assets": []map[string]any{{"asset_id": "gf01", "asset_url": "s3://bucket/gf01.jpg"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var m entity.DocumentManifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	require.Len(t, m.Versions, 1)
	require.Len(t, m.Versions[0].Assets["gf01"], 1)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents/doc1", nil)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangesEndpoint(t *testing.T) {
	e := newTestServer()
	doJSON(e, http.MethodPut, "/journals/j1", nil)
	doJSON(e, http.MethodPut, "/bundles/b1", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []changeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}

func TestAPIKeyAuthRejectsMissingKey(t *testing.T) {
	sess := kernel.NewSession(
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.DocumentManifest](),
		memstore.NewChanges(),
	)
	e := echo.New()
	SetupRoutes(e, NewHandlers(sess), "secret", "")

	rec := doJSON(e, http.MethodPut, "/journals/j1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
