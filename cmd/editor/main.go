package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/jtomassoni/mmb-sub000/internal/clock"
	editorapi "github.com/jtomassoni/mmb-sub000/internal/editor/api"
	"github.com/jtomassoni/mmb-sub000/internal/editor/autosave"
	"github.com/jtomassoni/mmb-sub000/internal/editor/queue"
	"github.com/jtomassoni/mmb-sub000/internal/models"
	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	queuePath := flag.String("queue", "mmb-editor-queue.db", "Path to offline queue database")
	token := flag.String("token", os.Getenv("MMB_TOKEN"), "Access token (defaults to MMB_TOKEN)")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()
	client := editorapi.NewClient(*serverURL)

	var err error
	switch command := args[0]; command {
	case "edit":
		err = runEdit(ctx, client, logger, *queuePath, *token, args[1:])
	case "status":
		err = runStatus(ctx, client, logger, *queuePath, args[1:])
	case "replay":
		err = runReplay(ctx, client, logger, *queuePath, *token)
	case "rollback":
		err = runRollback(ctx, client, *token, args[1:])
	case "audit":
		err = runAudit(ctx, client, *token, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runEdit commits field edits for one resource. Edits are merged into one
// change set and flushed immediately; a version conflict is either printed or
// auto-resolved per the -on-conflict flag.
func runEdit(ctx context.Context, client *editorapi.Client, logger *slog.Logger,
	queuePath, token string, args []string) error {

	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	site := fs.String("site", "", "Site id")
	kind := fs.String("kind", "", "Resource kind: event, special, hours, profile")
	id := fs.String("id", "", "Resource id")
	base := fs.Int64("base", 0, "Base version (0 creates the resource)")
	onConflict := fs.String("on-conflict", "", "Auto-resolution: local or server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref := models.ResourceRef{SiteID: *site, Kind: models.ResourceKind(*kind), ResourceID: *id}
	edits, err := parseFieldArgs(fs.Args())
	if err != nil {
		return err
	}
	if len(edits) == 0 {
		return fmt.Errorf("no field=value arguments given")
	}

	q, err := queue.New(queuePath, client, logger, queue.Hooks{})
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Close(); err != nil {
			logger.Error("failed to close queue", "error", err)
		}
	}()

	m := autosave.NewManager(client, clock.New(), logger, autosave.DefaultConfig())
	defer m.Close()
	m.AttachQueue(q)
	m.SetAccessToken(token)

	m.Track(ref, *base)
	for field, value := range edits {
		m.Update(ref, field, value)
	}
	m.Flush(ref)

	snap := m.State(ref)
	switch snap.State {
	case models.StateClean:
		fmt.Printf("Saved %s at version %d\n", ref, snap.Version)
		return nil

	case models.StateConflict:
		if *onConflict == "" {
			printConflict(snap.Conflict)
			return fmt.Errorf("conflict detected, re-run with -on-conflict local|server")
		}
		var resolution models.Resolution
		switch *onConflict {
		case "local":
			resolution = models.LocalWins()
		case "server":
			resolution = models.ServerWins()
		default:
			return fmt.Errorf("unknown -on-conflict mode %q", *onConflict)
		}
		if err := m.Resolve(ref, resolution); err != nil {
			return err
		}
		snap = m.State(ref)
		if snap.State != models.StateClean {
			return fmt.Errorf("resolution did not converge: state %s: %v", snap.State, snap.Err)
		}
		fmt.Printf("Conflict resolved (%s wins), %s at version %d\n", *onConflict, ref, snap.Version)
		return nil

	case models.StateDirty:
		// Offline: change parked in the queue.
		fmt.Printf("Server unreachable, change queued for replay (%s)\n", ref)
		return nil

	default:
		return fmt.Errorf("save failed: %v", snap.Err)
	}
}

// runStatus prints the offline queue contents.
func runStatus(ctx context.Context, client *editorapi.Client, logger *slog.Logger,
	queuePath string, args []string) error {

	fs := flag.NewFlagSet("status", flag.ExitOnError)
	site := fs.String("site", "", "Filter by site id")
	kind := fs.String("kind", "", "Filter by resource kind")
	id := fs.String("id", "", "Filter by resource id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := queue.New(queuePath, client, logger, queue.Hooks{})
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Close(); err != nil {
			logger.Error("failed to close queue", "error", err)
		}
	}()

	total, err := q.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Offline queue: %d change(s) pending\n", total)

	if *site != "" && *kind != "" && *id != "" {
		ref := models.ResourceRef{SiteID: *site, Kind: models.ResourceKind(*kind), ResourceID: *id}
		changes, err := q.PendingForResource(ctx, ref)
		if err != nil {
			return err
		}
		for _, change := range changes {
			fmt.Printf("  %s  %s  base=%d  retries=%d  enqueued=%s\n",
				change.ID, change.Ref, change.BaseVersion, change.RetryCount,
				change.EnqueuedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// runReplay drains the offline queue.
func runReplay(ctx context.Context, client *editorapi.Client, logger *slog.Logger,
	queuePath, token string) error {

	hooks := queue.Hooks{
		OnReplayed: func(change models.QueuedChange, resp *api.CommitResponse) {
			fmt.Printf("  ok       %s -> version %d\n", change.Ref, resp.Version)
		},
		OnConflict: func(change models.QueuedChange, conflict *api.ConflictBody) {
			fmt.Printf("  conflict %s (server version %d), edit again with -base %d\n",
				change.Ref, conflict.ServerVersion, conflict.ServerVersion)
		},
		OnPermanent: func(change models.QueuedChange, err error) {
			fmt.Printf("  dropped  %s: %v\n", change.Ref, err)
		},
	}
	q, err := queue.New(queuePath, client, logger, hooks)
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Close(); err != nil {
			logger.Error("failed to close queue", "error", err)
		}
	}()

	processed, err := q.Replay(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("Replayed %d change(s)\n", processed)
	return nil
}

// runRollback reverses one audited mutation by its audit id.
func runRollback(ctx context.Context, client *editorapi.Client, token string, args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	auditID := fs.String("id", "", "Audit entry id")
	reason := fs.String("reason", "", "Reason for the rollback")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *auditID == "" {
		return fmt.Errorf("-id is required")
	}

	resp, err := client.Rollback(ctx, token, api.RollbackRequest{
		AuditID: *auditID,
		Reason:  *reason,
	})
	if err != nil {
		return err
	}

	entry := resp.CompensatingEntry
	fmt.Printf("Rolled back %s/%s/%s (compensating entry %s)\n",
		entry.SiteID, entry.Kind, entry.ResourceID, entry.ID)
	return nil
}

// runAudit lists recent audit entries.
func runAudit(ctx context.Context, client *editorapi.Client, token string, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	site := fs.String("site", "", "Filter by site id")
	kind := fs.String("kind", "", "Filter by resource kind")
	id := fs.String("id", "", "Filter by resource id")
	limit := fs.Int("limit", 20, "Max entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := url.Values{}
	if *site != "" {
		params.Set("site_id", *site)
	}
	if *kind != "" {
		params.Set("kind", *kind)
	}
	if *id != "" {
		params.Set("resource_id", *id)
	}
	params.Set("limit", fmt.Sprint(*limit))
	params.Set("order", "desc")

	resp, err := client.QueryAudit(ctx, token, params)
	if err != nil {
		return err
	}

	fmt.Printf("%d entr(ies), %d total\n", len(resp.Entries), resp.Total)
	for _, e := range resp.Entries {
		marker := " "
		if e.RollbackEligible && !e.RolledBack {
			marker = "*"
		}
		fmt.Printf("%s %s  %-8s  %s/%s/%s  by %s  %s\n",
			marker, e.ID, e.Action, e.SiteID, e.Kind, e.ResourceID,
			e.ActorID, e.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if len(resp.Entries) > 0 {
		fmt.Println("* = rollback eligible")
	}
	return nil
}

// parseFieldArgs parses trailing field=value arguments.
func parseFieldArgs(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		field, value, found := strings.Cut(arg, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		fields[field] = value
	}
	return fields, nil
}

func printConflict(rec *models.ConflictRecord) {
	if rec == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Conflict on %s (server version %d):\n", rec.Ref, rec.ServerVersion)
	for _, field := range rec.ConflictingFields {
		fmt.Fprintf(os.Stderr, "  %s: local=%v server=%v\n",
			field, rec.LocalChanges[field], rec.ServerChanges[field])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: editor [flags] <command> [args]

Commands:
  edit      -site S -kind K -id R [-base N] [-on-conflict local|server] field=value ...
  status    [-site S -kind K -id R]
  replay
  rollback  -id AUDIT_ID [-reason TEXT]
  audit     [-site S] [-kind K] [-id R] [-limit N]

Flags:
`)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Printf("MMB Editor\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
