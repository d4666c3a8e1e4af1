package entity

import "time"

// Kind identifies which entity kind an Event/Manifest belongs to.
type Kind string

const (
	KindJournal  Kind = "journal"
	KindBundle   Kind = "documents_bundle"
	KindDocument Kind = "document"
)

// EventType names the mutation a given Event represents.
type EventType string

const (
	EventCreated           EventType = "created"
	EventMetadataSet       EventType = "metadata_set"
	EventMetadataCleared   EventType = "metadata_cleared"
	EventItemAdded         EventType = "item_added"
	EventItemInserted      EventType = "item_inserted"
	EventItemRemoved       EventType = "item_removed"
	EventVersionAdded      EventType = "version_added"
	EventAssetVersionAdded EventType = "asset_version_added"
	EventRenditionAdded    EventType = "rendition_version_added"
	EventDeleted           EventType = "deleted"
)

// Event is a value appended to an entity's in-memory history by a mutator.
// Replay of a history slice in order is pure and deterministic.
type Event struct {
	Entity    Kind
	ID        string
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// CreatedPayload seeds a fresh entity's manifest.
type CreatedPayload struct{}

// MetadataSetPayload carries the keys merged into a container's metadata.
type MetadataSetPayload struct {
	Metadata map[string]any
}

// MetadataClearedPayload carries the keys removed from a container's metadata.
type MetadataClearedPayload struct {
	Keys []string
}

// ItemAddedPayload/ItemInsertedPayload/ItemRemovedPayload describe mutations
// to a container's ordered `items` list (Journal.items or Bundle.items).
type ItemAddedPayload struct {
	Ref Ref
}

type ItemInsertedPayload struct {
	Pos int
	Ref Ref
}

type ItemRemovedPayload struct {
	ID string
}

// VersionAddedPayload describes a new Document version.
type VersionAddedPayload struct {
	Data            string
	Timestamp       time.Time
	AssetSlots      []string
	RenditionSlots  []string
}

// AssetVersionAddedPayload/RenditionAddedPayload describe a URI bound into
// a declared slot on the latest Document version.
type AssetVersionAddedPayload struct {
	Slot      string
	URI       string
	Timestamp time.Time
}

type RenditionAddedPayload struct {
	Slot      string
	URI       string
	Timestamp time.Time
}

// DeletedPayload marks lifecycle transition to tombstoned.
type DeletedPayload struct{}
