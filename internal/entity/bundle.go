package entity

import (
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// DocumentsBundle holds an open metadata section plus an ordered,
// id-unique list of document references (typically: the documents in an
// issue).
type DocumentsBundle struct {
	container
}

// NewDocumentsBundle creates a fresh DocumentsBundle and its creation event.
func NewDocumentsBundle(id string, now time.Time) (*DocumentsBundle, Event, error) {
	if id == "" {
		return nil, Event{}, fmt.Errorf("documents bundle id: %w", kernelerr.ErrValidation)
	}
	b := &DocumentsBundle{container: newContainer(KindBundle, id, now)}
	return b, *b.event(EventCreated, now, CreatedPayload{}), nil
}

// LoadDocumentsBundle reconstructs a DocumentsBundle from its current manifest.
func LoadDocumentsBundle(m ContainerManifest) *DocumentsBundle {
	return &DocumentsBundle{container: loadContainer(KindBundle, m)}
}

// ReplayDocumentsBundle reconstructs a DocumentsBundle purely from an
// ordered event history.
func ReplayDocumentsBundle(id string, history []Event) (*DocumentsBundle, error) {
	if len(history) == 0 || history[0].Entity != KindBundle || history[0].ID != id || history[0].Type != EventCreated {
		return nil, fmt.Errorf("documents bundle %s: history must start with a create event: %w", id, kernelerr.ErrValidation)
	}
	b := &DocumentsBundle{container: newContainer(KindBundle, id, history[0].Timestamp)}
	for _, ev := range history[1:] {
		if err := applyContainerEvent(&b.container, ev); err != nil {
			return nil, err
		}
	}
	return b, nil
}
