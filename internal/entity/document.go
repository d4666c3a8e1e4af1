package entity

import (
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// Document's identity is its id; its state is an ordered, oldest-first
// list of versions, each with a declared, append-only asset/rendition
// slot set.
type Document struct {
	kind     Kind
	manifest DocumentManifest
	deleted  bool
}

// NewDocument creates a fresh Document (no versions yet) and its creation
// event. v3pid is the document's v3 PID, generated by the caller (see
// pkg/pid) at registration time.
func NewDocument(id, v3pid string, now time.Time) (*Document, Event, error) {
	if id == "" {
		return nil, Event{}, fmt.Errorf("document id: %w", kernelerr.ErrValidation)
	}
	d := &Document{kind: KindDocument, manifest: newDocumentManifest(id, v3pid, now)}
	return d, *d.event(EventCreated, now, CreatedPayload{}), nil
}

// LoadDocument reconstructs a Document from its current manifest.
func LoadDocument(m DocumentManifest) *Document {
	return &Document{kind: KindDocument, manifest: m.clone(), deleted: m.base.Deleted}
}

// ReplayDocument reconstructs a Document purely from an ordered event
// history.
func ReplayDocument(id string, history []Event) (*Document, error) {
	if len(history) == 0 || history[0].Entity != KindDocument || history[0].ID != id || history[0].Type != EventCreated {
		return nil, fmt.Errorf("document %s: history must start with a create event: %w", id, kernelerr.ErrValidation)
	}
	d := &Document{kind: KindDocument, manifest: newDocumentManifest(id, "", history[0].Timestamp)}
	for _, ev := range history[1:] {
		if err := d.applyEvent(ev); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Manifest returns a deep-immutable snapshot of the document's state.
func (d *Document) Manifest() DocumentManifest {
	return d.manifest.clone()
}

// IsDeleted reports whether the document has been tombstoned.
func (d *Document) IsDeleted() bool {
	return d.deleted
}

func (d *Document) requireLive() error {
	if d.deleted {
		return fmt.Errorf("document %s: %w", d.manifest.ID, kernelerr.ErrAlreadyDeleted)
	}
	return nil
}

func (d *Document) latest() (*Version, int) {
	if len(d.manifest.Versions) == 0 {
		return nil, -1
	}
	idx := len(d.manifest.Versions) - 1
	return &d.manifest.Versions[idx], idx
}

// NewVersion appends a version declaring assetSlots/renditionSlots as
// empty (unbound) slots. If the new version is identical in content
// (same data URI and same declared slot set) to the current latest
// version, the call is a no-op and reports kernelerr.ErrVersionAlreadyExists
// so the service layer can translate that into idempotent success.
func (d *Document) NewVersion(dataURI string, assetSlots, renditionSlots []string, now time.Time) (*Event, error) {
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	if dataURI == "" {
		return nil, fmt.Errorf("document %s: data uri: %w", d.manifest.ID, kernelerr.ErrValidation)
	}

	if latest, _ := d.latest(); latest != nil && latest.Data == dataURI && sameSlotSet(latest.Assets, assetSlots) && sameSlotSet(latest.Renditions, renditionSlots) {
		return nil, fmt.Errorf("document %s: %w", d.manifest.ID, kernelerr.ErrVersionAlreadyExists)
	}

	v := Version{
		Data:      dataURI,
		Timestamp: now,
		Assets:    declareSlots(assetSlots),
	}
	if len(renditionSlots) > 0 {
		v.Renditions = declareSlots(renditionSlots)
	}
	d.manifest.Versions = append(d.manifest.Versions, v)
	d.manifest.base = d.manifest.base.touch(now)

	return d.event(EventVersionAdded, now, VersionAddedPayload{
		Data:           dataURI,
		Timestamp:      now,
		AssetSlots:     append([]string(nil), assetSlots...),
		RenditionSlots: append([]string(nil), renditionSlots...),
	}), nil
}

func declareSlots(names []string) map[string]SlotHistory {
	out := make(map[string]SlotHistory, len(names))
	for _, n := range names {
		out[n] = SlotHistory{}
	}
	return out
}

func sameSlotSet(existing map[string]SlotHistory, declared []string) bool {
	if len(existing) != len(declared) {
		return false
	}
	for _, n := range declared {
		if _, ok := existing[n]; !ok {
			return false
		}
	}
	return true
}

// NewAssetVersion appends [timestamp, uri] into the latest version's slot.
// Re-binding the same URI that is already the tail value is a no-op.
// Fails with ErrAssetSlotUnknown if the slot was not declared on the
// latest version.
func (d *Document) NewAssetVersion(slot, uri string, now time.Time) (*Event, error) {
	return d.newSlotVersion(slot, uri, now, false)
}

// NewRenditionVersion is the rendition-slot analogue of NewAssetVersion.
func (d *Document) NewRenditionVersion(slot, uri string, now time.Time) (*Event, error) {
	return d.newSlotVersion(slot, uri, now, true)
}

func (d *Document) newSlotVersion(slot, uri string, now time.Time, rendition bool) (*Event, error) {
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	latest, _ := d.latest()
	if latest == nil {
		return nil, fmt.Errorf("document %s: no versions: %w", d.manifest.ID, kernelerr.ErrAssetSlotUnknown)
	}

	slots := latest.Assets
	if rendition {
		slots = latest.Renditions
	}
	hist, ok := slots[slot]
	if !ok {
		return nil, fmt.Errorf("document %s: slot %q: %w", d.manifest.ID, slot, kernelerr.ErrAssetSlotUnknown)
	}
	if len(hist) > 0 && hist[len(hist)-1].URI == uri {
		return nil, nil
	}

	slots[slot] = append(hist, AssetEntry{Timestamp: now, URI: uri})
	d.manifest.base = d.manifest.base.touch(now)

	if rendition {
		return d.event(EventRenditionAdded, now, RenditionAddedPayload{Slot: slot, URI: uri, Timestamp: now}), nil
	}
	return d.event(EventAssetVersionAdded, now, AssetVersionAddedPayload{Slot: slot, URI: uri, Timestamp: now}), nil
}

// Version returns the version at the given zero-based index, or the
// latest version when index is nil.
func (d *Document) Version(index *int) (Version, error) {
	if len(d.manifest.Versions) == 0 {
		return Version{}, fmt.Errorf("document %s: %w", d.manifest.ID, kernelerr.ErrNotFound)
	}
	i := len(d.manifest.Versions) - 1
	if index != nil {
		i = *index
	}
	if i < 0 || i >= len(d.manifest.Versions) {
		return Version{}, fmt.Errorf("document %s: version index %d: %w", d.manifest.ID, i, kernelerr.ErrNotFound)
	}
	return d.manifest.Versions[i].clone(), nil
}

// VersionAt returns the version whose timestamp is the greatest that is
// <= at, with every slot truncated to entries whose own timestamp is also
// <= at. An empty slot in the result means the asset was not yet bound at
// that instant.
func (d *Document) VersionAt(at time.Time) (Version, error) {
	best := -1
	for i, v := range d.manifest.Versions {
		if !v.Timestamp.After(at) {
			best = i
		} else {
			break
		}
	}
	if best < 0 {
		return Version{}, fmt.Errorf("document %s: no version at or before %s: %w", d.manifest.ID, at, kernelerr.ErrNotFound)
	}
	return d.manifest.Versions[best].truncatedAt(at), nil
}

// MarkDeleted tombstones the document.
func (d *Document) MarkDeleted(now time.Time) (*Event, error) {
	if err := d.requireLive(); err != nil {
		return nil, err
	}
	d.deleted = true
	d.manifest.base.Deleted = true
	d.manifest.base = d.manifest.base.touch(now)
	return d.event(EventDeleted, now, DeletedPayload{}), nil
}

func (d *Document) event(t EventType, now time.Time, payload any) *Event {
	return &Event{Entity: d.kind, ID: d.manifest.ID, Type: t, Timestamp: now, Payload: payload}
}

func (d *Document) applyEvent(ev Event) error {
	switch p := ev.Payload.(type) {
	case CreatedPayload:
	case VersionAddedPayload:
		v := Version{Data: p.Data, Timestamp: p.Timestamp, Assets: declareSlots(p.AssetSlots)}
		if len(p.RenditionSlots) > 0 {
			v.Renditions = declareSlots(p.RenditionSlots)
		}
		d.manifest.Versions = append(d.manifest.Versions, v)
	case AssetVersionAddedPayload:
		latest, _ := d.latest()
		if latest == nil {
			return fmt.Errorf("document %s: asset event with no versions in history", d.manifest.ID)
		}
		hist, ok := latest.Assets[p.Slot]
		if !ok {
			return fmt.Errorf("document %s: slot %q: %w", d.manifest.ID, p.Slot, kernelerr.ErrAssetSlotUnknown)
		}
		latest.Assets[p.Slot] = append(hist, AssetEntry{Timestamp: p.Timestamp, URI: p.URI})
	case RenditionAddedPayload:
		latest, _ := d.latest()
		if latest == nil || latest.Renditions == nil {
			return fmt.Errorf("document %s: rendition event with no declared renditions in history", d.manifest.ID)
		}
		hist, ok := latest.Renditions[p.Slot]
		if !ok {
			return fmt.Errorf("document %s: rendition slot %q: %w", d.manifest.ID, p.Slot, kernelerr.ErrAssetSlotUnknown)
		}
		latest.Renditions[p.Slot] = append(hist, AssetEntry{Timestamp: p.Timestamp, URI: p.URI})
	case DeletedPayload:
		d.deleted = true
		d.manifest.base.Deleted = true
	default:
		return fmt.Errorf("document %s: unknown event type %q in history", d.manifest.ID, ev.Type)
	}
	d.manifest.base = d.manifest.base.touch(ev.Timestamp)
	if d.manifest.base.Created.IsZero() {
		d.manifest.base.Created = ev.Timestamp
	}
	return nil
}
