package entity

import (
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

// Journal holds an open metadata section plus an ordered, id-unique list of
// bundle references.
type Journal struct {
	container
}

// NewJournal creates a fresh Journal and its creation event.
func NewJournal(id string, now time.Time) (*Journal, Event, error) {
	if id == "" {
		return nil, Event{}, fmt.Errorf("journal id: %w", kernelerr.ErrValidation)
	}
	j := &Journal{container: newContainer(KindJournal, id, now)}
	return j, *j.event(EventCreated, now, CreatedPayload{}), nil
}

// LoadJournal reconstructs a Journal directly from its current manifest,
// the storage-backed path: mutators only need the current manifest, not
// the full history, to validate their preconditions.
func LoadJournal(m ContainerManifest) *Journal {
	return &Journal{container: loadContainer(KindJournal, m)}
}

// ReplayJournal reconstructs a Journal purely from an ordered event
// history, validating that it begins with a create event for this id.
func ReplayJournal(id string, history []Event) (*Journal, error) {
	if len(history) == 0 || history[0].Entity != KindJournal || history[0].ID != id || history[0].Type != EventCreated {
		return nil, fmt.Errorf("journal %s: history must start with a create event: %w", id, kernelerr.ErrValidation)
	}
	j := &Journal{container: newContainer(KindJournal, id, history[0].Timestamp)}
	for _, ev := range history[1:] {
		if err := applyContainerEvent(&j.container, ev); err != nil {
			return nil, err
		}
	}
	return j, nil
}
