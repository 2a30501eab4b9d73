package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/app"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/config"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
)

// appFactory собирает приложение из окружения.
type appFactory func(ctx context.Context) (*app.App, error)

func defaultFactory(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app.InitLogger(cfg)
	return app.New(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "maintenance",
		Short:         "Operational tasks for the BRACU Lost & Found backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCmd(defaultFactory),
		newSweepCmd(defaultFactory),
		newExpireReportCmd(defaultFactory),
	)
	return root
}

func newMigrateCmd(build appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func newSweepCmd(build appFactory) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Move lost/found items past their deadline to the warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			moved, err := a.Svc.Sweeper.Sweep(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %d item(s) to the warehouse\n", moved)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "sweep as of this RFC3339 time (default: now)")
	return cmd
}

func newExpireReportCmd(build appFactory) *cobra.Command {
	var (
		within   time.Duration
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "expire-report",
		Short: "List items that reach their warehouse deadline soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			lines, err := service.ExpiryReport(cmd.Context(), a.Repos.Listings, time.Now().UTC(), within)
			if err != nil {
				return err
			}
			return writeExpiryReport(cmd.OutOrStdout(), lines, jsonMode)
		},
	}
	cmd.Flags().DurationVar(&within, "within", 24*time.Hour, "report items whose deadline falls within this window")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the report as JSON")
	return cmd
}

func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at must be RFC3339: %w", err)
	}
	return t.UTC(), nil
}

func writeExpiryReport(w io.Writer, lines []service.ExpiryLine, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}

	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "no items due")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tDEADLINE\tREMAINING")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			l.ListingID, l.Name, l.Status, l.Deadline.Format(time.RFC3339), l.Remaining)
	}
	return tw.Flush()
}
