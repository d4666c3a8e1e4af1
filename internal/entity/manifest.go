package entity

import "time"

// Ref is a reference held in a container's ordered `items` list: a
// Journal's reference to a bundle, or a DocumentsBundle's reference to a
// document. NS is an optional ordered grouping/namespacing path, e.g.
// ["2019", "v21", "n1"].
type Ref struct {
	ID string   `json:"id"`
	NS []string `json:"ns,omitempty"`
}

func (r Ref) clone() Ref {
	out := Ref{ID: r.ID}
	if r.NS != nil {
		out.NS = append([]string(nil), r.NS...)
	}
	return out
}

// base holds the stable keys every manifest carries: id, created, updated,
// and the redundant _id mirror spec.md §3.1 requires.
type base struct {
	ID      string    `json:"id"`
	ID_     string    `json:"_id"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Deleted bool      `json:"deleted,omitempty"`
}

func newBase(id string, created time.Time) base {
	return base{ID: id, ID_: id, Created: created, Updated: created}
}

func (b base) touch(now time.Time) base {
	b.Updated = now
	return b
}

// ContainerManifest is the shape shared by Journal and DocumentsBundle: an
// open metadata section plus an ordered, id-unique list of references.
type ContainerManifest struct {
	base
	Metadata map[string]any `json:"metadata"`
	Items    []Ref          `json:"items"`
}

func newContainerManifest(id string, created time.Time) ContainerManifest {
	return ContainerManifest{
		base:     newBase(id, created),
		Metadata: map[string]any{},
		Items:    []Ref{},
	}
}

func (m ContainerManifest) clone() ContainerManifest {
	out := ContainerManifest{base: m.base}
	out.Metadata = make(map[string]any, len(m.Metadata))
	for k, v := range m.Metadata {
		out.Metadata[k] = v
	}
	out.Items = make([]Ref, len(m.Items))
	for i, r := range m.Items {
		out.Items[i] = r.clone()
	}
	return out
}

func (m ContainerManifest) indexOf(id string) int {
	for i, r := range m.Items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// AssetEntry is one [timestamp, uri] pair in a slot's history.
type AssetEntry struct {
	Timestamp time.Time `json:"timestamp"`
	URI       string    `json:"uri"`
}

// SlotHistory is the append-only list bound to an asset or rendition slot
// name within a single Document version. nil/empty means declared-but-unbound.
type SlotHistory []AssetEntry

func (s SlotHistory) clone() SlotHistory {
	out := make(SlotHistory, len(s))
	copy(out, s)
	return out
}

func cloneSlots(m map[string]SlotHistory) map[string]SlotHistory {
	out := make(map[string]SlotHistory, len(m))
	for k, v := range m {
		out[k] = v.clone()
	}
	return out
}

// Version is one sealed (once a later version exists) or latest (mutable
// within its declared slots) snapshot of a Document.
type Version struct {
	Data       string                 `json:"data"`
	Timestamp  time.Time              `json:"timestamp"`
	Assets     map[string]SlotHistory `json:"assets"`
	Renditions map[string]SlotHistory `json:"renditions,omitempty"`
}

func (v Version) clone() Version {
	return Version{
		Data:       v.Data,
		Timestamp:  v.Timestamp,
		Assets:     cloneSlots(v.Assets),
		Renditions: cloneSlots(v.Renditions),
	}
}

// truncatedAt returns a copy of v with every slot entry after t dropped.
func (v Version) truncatedAt(t time.Time) Version {
	out := Version{Data: v.Data, Timestamp: v.Timestamp}
	out.Assets = truncateSlots(v.Assets, t)
	if v.Renditions != nil {
		out.Renditions = truncateSlots(v.Renditions, t)
	}
	return out
}

func truncateSlots(m map[string]SlotHistory, t time.Time) map[string]SlotHistory {
	out := make(map[string]SlotHistory, len(m))
	for slot, hist := range m {
		var kept SlotHistory
		for _, e := range hist {
			if !e.Timestamp.After(t) {
				kept = append(kept, e)
			}
		}
		out[slot] = kept
	}
	return out
}

// DocumentManifest is the current materialized state of a Document: an
// append-only, oldest-first list of versions.
type DocumentManifest struct {
	base
	V3PID    string    `json:"v3_pid"`
	Versions []Version `json:"versions"`
}

func newDocumentManifest(id, v3pid string, created time.Time) DocumentManifest {
	return DocumentManifest{
		base:  newBase(id, created),
		V3PID: v3pid,
	}
}

func (m DocumentManifest) clone() DocumentManifest {
	out := DocumentManifest{base: m.base, V3PID: m.V3PID}
	out.Versions = make([]Version, len(m.Versions))
	for i, v := range m.Versions {
		out.Versions[i] = v.clone()
	}
	return out
}
