package entity

import (
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// container is the embeddable state machine shared by Journal and
// DocumentsBundle: an entity lifecycle plus a ManifestContainer mutated by
// add/insert/remove-item and metadata set/clear.
type container struct {
	kind     Kind
	manifest ContainerManifest
	deleted  bool
}

func newContainer(kind Kind, id string, now time.Time) container {
	return container{kind: kind, manifest: newContainerManifest(id, now)}
}

func loadContainer(kind Kind, m ContainerManifest) container {
	return container{kind: kind, manifest: m.clone(), deleted: m.base.Deleted}
}

// Manifest returns a deep-immutable snapshot of the container's state.
func (c *container) Manifest() ContainerManifest {
	return c.manifest.clone()
}

// IsDeleted reports whether the entity has been tombstoned.
func (c *container) IsDeleted() bool {
	return c.deleted
}

func (c *container) requireLive() error {
	if c.deleted {
		return fmt.Errorf("%s %s: %w", c.kind, c.manifest.ID, kernelerr.ErrAlreadyDeleted)
	}
	return nil
}

// AddItem appends ref to items unless its id is already present, in which
// case the call is a no-op and returns a nil Event.
func (c *container) AddItem(ref Ref, now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	if c.manifest.indexOf(ref.ID) >= 0 {
		return nil, nil
	}
	c.manifest.Items = append(c.manifest.Items, ref.clone())
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventItemAdded, now, ItemAddedPayload{Ref: ref.clone()}), nil
}

// InsertItem inserts ref at pos unless its id is already present.
func (c *container) InsertItem(pos int, ref Ref, now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	if c.manifest.indexOf(ref.ID) >= 0 {
		return nil, nil
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(c.manifest.Items) {
		pos = len(c.manifest.Items)
	}
	items := make([]Ref, 0, len(c.manifest.Items)+1)
	items = append(items, c.manifest.Items[:pos]...)
	items = append(items, ref.clone())
	items = append(items, c.manifest.Items[pos:]...)
	c.manifest.Items = items
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventItemInserted, now, ItemInsertedPayload{Pos: pos, Ref: ref.clone()}), nil
}

// RemoveItem drops the reference with the given id.
func (c *container) RemoveItem(id string, now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	idx := c.manifest.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%s %s: reference %q: %w", c.kind, c.manifest.ID, id, kernelerr.ErrUnknownReference)
	}
	c.manifest.Items = append(c.manifest.Items[:idx], c.manifest.Items[idx+1:]...)
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventItemRemoved, now, ItemRemovedPayload{ID: id}), nil
}

// SetMetadata merges kv into the metadata section.
func (c *container) SetMetadata(kv map[string]any, now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	if len(kv) == 0 {
		return nil, nil
	}
	for k, v := range kv {
		c.manifest.Metadata[k] = v
	}
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventMetadataSet, now, MetadataSetPayload{Metadata: kv}), nil
}

// ClearMetadata removes the named keys from the metadata section.
func (c *container) ClearMetadata(keys []string, now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	for _, k := range keys {
		delete(c.manifest.Metadata, k)
	}
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventMetadataCleared, now, MetadataClearedPayload{Keys: keys}), nil
}

// MarkDeleted tombstones the entity.
func (c *container) MarkDeleted(now time.Time) (*Event, error) {
	if err := c.requireLive(); err != nil {
		return nil, err
	}
	c.deleted = true
	c.manifest.base.Deleted = true
	c.manifest.base = c.manifest.base.touch(now)
	return c.event(EventDeleted, now, DeletedPayload{}), nil
}

func (c *container) event(t EventType, now time.Time, payload any) *Event {
	return &Event{Entity: c.kind, ID: c.manifest.ID, Type: t, Timestamp: now, Payload: payload}
}

// applyContainerEvent replays a single event onto a container during pure
// history reconstruction.
func applyContainerEvent(c *container, ev Event) error {
	switch p := ev.Payload.(type) {
	case CreatedPayload:
		// handled by the caller before replay begins
	case ItemAddedPayload:
		if c.manifest.indexOf(p.Ref.ID) >= 0 {
			return fmt.Errorf("%s %s: duplicate reference %q in history: %w", c.kind, c.manifest.ID, p.Ref.ID, kernelerr.ErrDuplicateReference)
		}
		c.manifest.Items = append(c.manifest.Items, p.Ref.clone())
	case ItemInsertedPayload:
		if c.manifest.indexOf(p.Ref.ID) >= 0 {
			return fmt.Errorf("%s %s: duplicate reference %q in history: %w", c.kind, c.manifest.ID, p.Ref.ID, kernelerr.ErrDuplicateReference)
		}
		pos := p.Pos
		if pos < 0 || pos > len(c.manifest.Items) {
			pos = len(c.manifest.Items)
		}
		items := make([]Ref, 0, len(c.manifest.Items)+1)
		items = append(items, c.manifest.Items[:pos]...)
		items = append(items, p.Ref.clone())
		items = append(items, c.manifest.Items[pos:]...)
		c.manifest.Items = items
	case ItemRemovedPayload:
		idx := c.manifest.indexOf(p.ID)
		if idx < 0 {
			return fmt.Errorf("%s %s: unknown reference %q in history: %w", c.kind, c.manifest.ID, p.ID, kernelerr.ErrUnknownReference)
		}
		c.manifest.Items = append(c.manifest.Items[:idx], c.manifest.Items[idx+1:]...)
	case MetadataSetPayload:
		for k, v := range p.Metadata {
			c.manifest.Metadata[k] = v
		}
	case MetadataClearedPayload:
		for _, k := range p.Keys {
			delete(c.manifest.Metadata, k)
		}
	case DeletedPayload:
		c.deleted = true
		c.manifest.base.Deleted = true
	default:
		return fmt.Errorf("%s %s: unknown event type %q in history", c.kind, c.manifest.ID, ev.Type)
	}
	c.manifest.base = c.manifest.base.touch(ev.Timestamp)
	if c.manifest.base.Created.IsZero() {
		c.manifest.base.Created = ev.Timestamp
	}
	return nil
}
