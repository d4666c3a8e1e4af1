// Package couchdb adapts the kernel's store ports onto CouchDB via
// go-kivik. One kivik.DB handle backs one collection; the document's
// native "_rev" field is used as the optimistic-concurrency token spec.md
// §4.2 requires. Grounded on the teacher's db/repository/couchdb.go
// (NewCouchDBRepository / SaveWorkflow / GetWorkflow / DeleteWorkflow:
// get-current-revision-then-put-or-delete), generalized from two fixed
// collections to one collection per entity kind and from workflow
// semantics to manifest semantics.
package couchdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/store"
)

// Connect dials CouchDB at dsn (which may embed basic-auth credentials)
// and returns a client, mirroring the teacher's NewCouchDBRepository
// connection setup.
func Connect(dsn string) (*kivik.Client, error) {
	client, err := kivik.New("couch", dsn)
	if err != nil {
		return nil, fmt.Errorf("couchdb: connect: %w", err)
	}
	return client, nil
}

// EnsureDB returns a handle to name, creating the database if it does not
// already exist.
func EnsureDB(ctx context.Context, client *kivik.Client, name string) (*kivik.DB, error) {
	exists, err := client.DBExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("couchdb: check database %s: %w", name, err)
	}
	if !exists {
		if err := client.CreateDB(ctx, name); err != nil {
			return nil, fmt.Errorf("couchdb: create database %s: %w", name, err)
		}
	}
	db := client.DB(name)
	if err := db.Err(); err != nil {
		return nil, fmt.Errorf("couchdb: open database %s: %w", name, err)
	}
	return db, nil
}

// Store is a generic CouchDB-backed store.DataStore[M].
type Store[M any] struct {
	db *kivik.DB
}

// NewStore wraps db as a store.DataStore[M].
func NewStore[M any](db *kivik.DB) *Store[M] {
	return &Store[M]{db: db}
}

func (s *Store[M]) Add(ctx context.Context, id string, manifest M) (string, error) {
	doc, err := toDoc(id, manifest, "")
	if err != nil {
		return "", err
	}
	rev, err := s.db.Put(ctx, id, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return "", fmt.Errorf("couchdb: %s: %w", id, kernelerr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("couchdb: add %s: %w", id, err)
	}
	return rev, nil
}

func (s *Store[M]) Update(ctx context.Context, id string, manifest M, rev string) (string, error) {
	doc, err := toDoc(id, manifest, rev)
	if err != nil {
		return "", err
	}
	newRev, err := s.db.Put(ctx, id, doc)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return "", fmt.Errorf("couchdb: %s: revision %s: %w", id, rev, kernelerr.ErrAlreadyExists)
		}
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return "", fmt.Errorf("couchdb: %s: %w", id, kernelerr.ErrNotFound)
		}
		return "", fmt.Errorf("couchdb: update %s: %w", id, err)
	}
	return newRev, nil
}

func (s *Store[M]) Fetch(ctx context.Context, id string) (M, string, error) {
	var zero M
	raw := map[string]any{}
	if err := s.db.Get(ctx, id).ScanDoc(&raw); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return zero, "", fmt.Errorf("couchdb: %s: %w", id, kernelerr.ErrNotFound)
		}
		return zero, "", fmt.Errorf("couchdb: fetch %s: %w", id, err)
	}

	rev, _ := raw["_rev"].(string)
	delete(raw, "_rev")

	manifest, err := fromDoc[M](raw)
	if err != nil {
		return zero, "", err
	}
	return manifest, rev, nil
}

// FetchRev returns the manifest as it stood at rev, relying on CouchDB's
// own unreclaimed-revision retention (manual compaction only, spec.md
// §6.2's assumption).
func (s *Store[M]) FetchRev(ctx context.Context, id, rev string) (M, error) {
	var zero M
	raw := map[string]any{}
	if err := s.db.Get(ctx, id, kivik.Param("rev", rev)).ScanDoc(&raw); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return zero, fmt.Errorf("couchdb: %s: revision %s: %w", id, rev, kernelerr.ErrNotFound)
		}
		return zero, fmt.Errorf("couchdb: fetch %s@%s: %w", id, rev, err)
	}
	delete(raw, "_rev")
	return fromDoc[M](raw)
}

func (s *Store[M]) Delete(ctx context.Context, id string, rev string) error {
	if rev == "" {
		var raw map[string]any
		if err := s.db.Get(ctx, id).ScanDoc(&raw); err != nil {
			if kivik.HTTPStatus(err) == http.StatusNotFound {
				return fmt.Errorf("couchdb: %s: %w", id, kernelerr.ErrNotFound)
			}
			return fmt.Errorf("couchdb: delete %s: %w", id, err)
		}
		rev, _ = raw["_rev"].(string)
	}
	if _, err := s.db.Delete(ctx, id, rev); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return fmt.Errorf("couchdb: %s: %w", id, kernelerr.ErrNotFound)
		}
		return fmt.Errorf("couchdb: delete %s: %w", id, err)
	}
	return nil
}

func toDoc[M any](id string, manifest M, rev string) (map[string]any, error) {
	b, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("couchdb: marshal manifest %s: %w", id, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("couchdb: unmarshal manifest %s: %w", id, err)
	}
	doc["_id"] = id
	if rev != "" {
		doc["_rev"] = rev
	}
	return doc, nil
}

func fromDoc[M any](raw map[string]any) (M, error) {
	var out M
	b, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("couchdb: remarshal document: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("couchdb: unmarshal document: %w", err)
	}
	return out, nil
}

// Changes is the CouchDB-backed store.ChangesDataStore, realised as a
// plain append-only collection queried via AllDocs, with the since
// filter, timestamp-ascending sort and limit applied in process. This
// module creates no Mango or view index on the collection, so every
// Filter call reads all change documents.
type Changes struct {
	db *kivik.DB
}

// NewChanges wraps db as a store.ChangesDataStore.
func NewChanges(db *kivik.DB) *Changes {
	return &Changes{db: db}
}

type changeDoc struct {
	Timestamp string `json:"timestamp"`
	Entity    string `json:"entity"`
	ID        string `json:"id"`
	Deleted   bool   `json:"deleted,omitempty"`
}

const timestampLayout = "2006-01-02T15:04:05.000000Z"

func (c *Changes) Add(ctx context.Context, ch store.Change) error {
	doc := changeDoc{
		Timestamp: ch.Timestamp.UTC().Format(timestampLayout),
		Entity:    ch.Entity,
		ID:        ch.ID,
		Deleted:   ch.Deleted,
	}
	docID := fmt.Sprintf("%s-%s-%d", ch.Entity, ch.ID, ch.Timestamp.UnixNano())
	if _, err := c.db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("couchdb: append change %s/%s: %w", ch.Entity, ch.ID, err)
	}
	return nil
}

func (c *Changes) Filter(ctx context.Context, since *time.Time, limit int) ([]store.Change, error) {
	rows := c.db.AllDocs(ctx, kivik.Param("include_docs", true))
	defer rows.Close()

	var out []store.Change
	for rows.Next() {
		var doc changeDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		if strings.HasPrefix(rows.ID(), "_design/") {
			continue
		}
		ts, err := time.Parse(timestampLayout, doc.Timestamp)
		if err != nil {
			continue
		}
		if since != nil && !ts.After(*since) {
			continue
		}
		out = append(out, store.Change{Timestamp: ts, Entity: doc.Entity, ID: doc.ID, Deleted: doc.Deleted})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("couchdb: filter changes: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
