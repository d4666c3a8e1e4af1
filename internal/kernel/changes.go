package kernel

import (
	"context"
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/retry"
	"eve.evalgo.org/kernel/internal/store"
)

// FetchChanges returns the change feed entries committed strictly after
// since (nil fetches from the beginning), ascending by timestamp, capped
// at limit (<=0 uses the feed's default page size).
func FetchChanges(ctx context.Context, sess *Session, since *time.Time, limit int) ([]store.Change, error) {
	var out []store.Change
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		out, err = sess.Changes.Fetch(ctx, since, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch changes: %w", err)
	}
	return out, nil
}
