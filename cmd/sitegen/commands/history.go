package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of entries to show" default:"20"`
	RunID string `name:"run" help:"Show only the sites of this run ID"`

	out io.Writer
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return serrors.ValidationFailed("history.path", "is empty; history is disabled")
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		fmt.Fprintln(h.writer(), "No build history yet.")
		return nil
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return serrors.Wrap(err, serrors.CategoryRuntime, serrors.SeverityFatal, "open history failed")
	}
	defer func() { _ = store.Close() }()

	var entries []history.Entry
	if h.RunID != "" {
		entries, err = store.ByRun(context.Background(), h.RunID)
	} else {
		entries, err = store.Recent(context.Background(), h.Limit)
	}
	if err != nil {
		return serrors.Wrap(err, serrors.CategoryRuntime, serrors.SeverityFatal, "query history failed")
	}
	return printHistory(h.writer(), entries)
}

func (h *HistoryCmd) writer() io.Writer {
	if h.out != nil {
		return h.out
	}
	return os.Stdout
}

func printHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No build history yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tRUN\tDOMAIN\tSTATUS\tPORT\tHERO\tERROR")
	for _, e := range entries {
		port := "-"
		if e.Port > 0 {
			port = fmt.Sprint(e.Port)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.FinishedAt.Local().Format(time.DateTime),
			shortID(e.RunID),
			e.Domain,
			e.Status,
			port,
			dash(e.HeroWord),
			dash(e.Error))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
