// Command kernelctl is the kernel's operator CLI: it prints change-feed
// entries read from a running CouchDB backend, grounded on the teacher's
// cli/root.go cobra command tree. Its single "changes" subcommand takes
// plain cobra --since/--limit flags; configuration comes from
// config.Load (environment variables and KERNEL_CONFIG_FILE).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"eve.evalgo.org/kernel/internal/adapter/couchdb"
	"eve.evalgo.org/kernel/internal/changes"
	"eve.evalgo.org/kernel/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "kernelctl",
	Short: "operator CLI for the kernel's change feed",
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "print change feed entries",
	RunE:  runChanges,
}

var (
	sinceFlag string
	limitFlag int
)

func init() {
	changesCmd.Flags().StringVar(&sinceFlag, "since", "", "only entries strictly after this ISO-8601 timestamp")
	changesCmd.Flags().IntVar(&limitFlag, "limit", 0, "maximum entries to print (0 = default page size)")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	client, err := couchdb.Connect(cfg.CouchDBDSN)
	if err != nil {
		return fmt.Errorf("connect couchdb: %w", err)
	}
	db, err := couchdb.EnsureDB(ctx, client, "changes")
	if err != nil {
		return fmt.Errorf("ensure changes db: %w", err)
	}
	feed := couchdb.NewChanges(db)

	var since *time.Time
	if sinceFlag != "" {
		t, err := changes.ParseTimestamp(sinceFlag)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		since = &t
	}

	entries, err := changes.New(feed).Fetch(ctx, since, limitFlag)
	if err != nil {
		return fmt.Errorf("filter changes: %w", err)
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\tdeleted=%v\n", changes.FormatTimestamp(e.Timestamp), e.Entity, e.ID, e.Deleted)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
