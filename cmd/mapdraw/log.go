package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
	"github.com/joeblew999/plat-mapdraw/internal/server"
)

// logCmd operates on the data log of the configured store without
// starting the HTTP server.
func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and manage the pending data log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending entries (--geojson for a FeatureCollection)",
		Run: withWorkspace(func(ctx context.Context, cmd *cobra.Command, args []string, srv *server.Server) error {
			entries, err := srv.Workspace().Log().List(ctx)
			if err != nil {
				return err
			}
			if asGeoJSON, _ := cmd.Flags().GetBool("geojson"); asGeoJSON {
				data, err := datalog.Collection(entries).MarshalJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printEntries(entries)
			return nil
		}),
	}
	listCmd.Flags().Bool("geojson", false, "Output a GeoJSON FeatureCollection")

	removeCmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove entries by id",
		Args:  cobra.MinimumNArgs(1),
		Run: withWorkspace(func(ctx context.Context, cmd *cobra.Command, args []string, srv *server.Server) error {
			for _, id := range args {
				if err := srv.Workspace().Log().Remove(ctx, id); err != nil {
					return err
				}
				fmt.Printf("Removed %s\n", id)
			}
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every pending entry",
		Run: withWorkspace(func(ctx context.Context, cmd *cobra.Command, args []string, srv *server.Server) error {
			if err := srv.Workspace().Log().Clear(ctx); err != nil {
				return err
			}
			fmt.Println("Data log cleared")
			return nil
		}),
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save & Complete: submit every entry to the backend",
		Run: withWorkspace(func(ctx context.Context, cmd *cobra.Command, args []string, srv *server.Server) error {
			res, err := srv.Workspace().Save(ctx)
			if err != nil {
				return err
			}
			for _, s := range res.Saved {
				fmt.Printf("saved   %s -> %s\n", s.EntryID, s.RowID)
			}
			for _, f := range res.Failed {
				fmt.Printf("failed  %s: %v\n", f.EntryID, f.Err)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d entries failed and remain in the log",
					len(res.Failed), len(res.Failed)+len(res.Saved))
			}
			return nil
		}),
	}

	cmd.AddCommand(listCmd, removeCmd, clearCmd, saveCmd)
	return cmd
}

func withWorkspace(fn func(ctx context.Context, cmd *cobra.Command, args []string, srv *server.Server) error) func(*cobra.Command, []string) {
	return humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
		log := newLogger(opts)
		defer log.Sync()

		srv := newServer(opts, log)
		err := fn(cmd.Context(), cmd, args, srv)
		if cerr := srv.Close(); cerr != nil {
			log.Warn("failed to close store", zap.Error(cerr))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	})
}

func printEntries(entries []datalog.Entry) {
	if len(entries) == 0 {
		fmt.Println("Data log is empty")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tLABEL\tCENTER\tCREATED")
	for _, e := range entries {
		typ, _ := e.Type()
		c := feature.Summarize(e.Feature).Center
		fmt.Fprintf(w, "%s\t%s\t%s\t%.5f, %.5f\t%s\n",
			e.ID, typ, e.LabelString(), c.Lat(), c.Lon(),
			time.UnixMilli(e.Timestamp).Format(time.DateTime))
	}
	w.Flush()
}
