package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"eve.evalgo.org/kernel/internal/changes"
	"eve.evalgo.org/kernel/internal/kernel"
)

type changeEntry struct {
	Timestamp string `json:"timestamp"`
	Entity    string `json:"entity"`
	ID        string `json:"id"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// FetchChanges handles GET /changes?since=&limit=.
func (h *Handlers) FetchChanges(c echo.Context) error {
	var since *time.Time
	if s := c.QueryParam("since"); s != "" {
		t, err := changes.ParseTimestamp(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "since must be an ISO-8601 timestamp"})
		}
		since = &t
	}

	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
		}
		limit = n
	}

	entries, err := kernel.FetchChanges(c.Request().Context(), h.Session, since, limit)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]changeEntry, len(entries))
	for i, e := range entries {
		out[i] = changeEntry{
			Timestamp: changes.FormatTimestamp(e.Timestamp),
			Entity:    e.Entity,
			ID:        e.ID,
			Deleted:   e.Deleted,
		}
	}
	return c.JSON(http.StatusOK, out)
}
