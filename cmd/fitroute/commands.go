package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/fitroute/internal/domain"
	"github.com/pkordes/fitroute/internal/reconcile"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List routes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := a.store.Snapshot()
			printStatus(cmd.ErrOrStderr(), snap.Status)
			return printTable(cmd.OutOrStdout(), snap.Routes)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one route as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range a.store.Snapshot().Routes {
				if r.ID != args[0] {
					continue
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return fmt.Errorf("route %q: %w", args[0], domain.ErrNotFound)
		},
	}
}

type draftFlags struct {
	name   string
	points []string
	photo  string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "route name")
	cmd.Flags().StringArrayVar(&f.points, "point", nil, "GPS point as lat,lon (repeatable)")
	cmd.Flags().StringVar(&f.photo, "photo", "", "photo URI")
}

// fill applies the flags to the store's draft the way the app's form does:
// name replaced, points appended, photo attached.
func (f *draftFlags) fill(cmd *cobra.Command, s *reconcile.Store) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("name") {
		s.SetName(f.name)
	}
	loc, err := newFlagLocator(f.points, time.Now())
	if err != nil {
		return err
	}
	for loc.remaining() > 0 {
		if err := s.AddPoint(ctx, loc); err != nil {
			return err
		}
	}
	if _, _, err := s.PickPhoto(ctx, flagPicker(f.photo)); err != nil {
		return err
	}
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "create --name NAME --point LAT,LON --point LAT,LON [--photo URI]",
		Short: "Create a route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.fill(cmd, a.store); err != nil {
				return err
			}
			return save(cmd, a)
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f draftFlags
	cmd := &cobra.Command{
		Use:   "update <id> [--name NAME] [--point LAT,LON]... [--photo URI]",
		Short: "Rename a route, append points or attach a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Edit(args[0]); err != nil {
				return err
			}
			if err := f.fill(cmd, a.store); err != nil {
				return err
			}
			return save(cmd, a)
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.store.Delete(cmd.Context(), args[0])
			if out.Route.ID == "" {
				return fmt.Errorf("route %q: %w", args[0], domain.ErrNotFound)
			}
			printStatus(cmd.ErrOrStderr(), out.Status)
			return nil
		},
	}
}

func save(cmd *cobra.Command, a *app) error {
	out, err := a.store.Save(cmd.Context())
	printStatus(cmd.ErrOrStderr(), out.Status)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Route.ID)
	return nil
}

func printStatus(w io.Writer, s reconcile.Status) {
	if s != reconcile.StatusNone {
		fmt.Fprintln(w, s)
	}
}

func printTable(w io.Writer, routes []domain.Route) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOINTS\tCREATED\tSYNCED")
	for _, r := range routes {
		synced := "yes"
		if r.Unsynced {
			synced = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Name, len(r.Points), r.CreatedAt.Local().Format(time.DateTime), synced)
	}
	return tw.Flush()
}
