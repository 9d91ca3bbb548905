package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wifiradar/internal/app"
)

func newOUICmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oui",
		Short: "Maintain and query the OUI vendor registry",
	}
	cmd.AddCommand(newOUIUpdateCmd(e), newOUILookupCmd(e), newOUISearchCmd(e))
	return cmd
}

func newOUIUpdateCmd(e *env) *cobra.Command {
	var (
		source string
		file   string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download or import the OUI registry",
		Long: `Download the IEEE MA-L registry (or the Wireshark manuf file) into the
local OUI database. The download is skipped while the registry is younger
than oui.max_age unless --force is given. --file imports a local copy
instead; --source then names its format (ieee, wireshark or txt).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if source == "" {
				source = e.cfg.OUI.Source
			}
			ctx := cmd.Context()
			if err := os.MkdirAll(filepath.Dir(e.cfg.OUI.DBPath), 0o750); err != nil {
				return fmt.Errorf("failed to create OUI directory: %w", err)
			}
			db, err := fingerprint.NewOUIDatabase(e.cfg.OUI.DBPath, e.cfg.OUI.CacheSize, nil)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			var imported int
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				entries, err := fingerprint.ImportFile(f, source, time.Now().UTC())
				if err != nil {
					return err
				}
				if err := db.BulkInsertOUIs(ctx, entries); err != nil {
					return err
				}
				imported = len(entries)
			} else {
				updater := fingerprint.NewUpdater(db, source, e.cfg.OUI.MaxAge, e.logger.With("component", "oui"))
				updater.URL = e.cfg.OUI.URL
				imported, err = updater.Refresh(ctx, force)
				if err != nil {
					return err
				}
				if imported == 0 {
					stats, err := db.GetStats(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "OUI registry is up to date: %d entries, last updated %s\n",
						stats.TotalEntries, stats.LastUpdated.Format(time.RFC3339))
					return nil
				}
			}

			after, err := db.GetStats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d entries, registry now holds %d\n", imported, after.TotalEntries)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&source, "source", "", "registry source: ieee or wireshark (default from oui.source)")
	f.StringVar(&file, "file", "", "import a local registry file instead of downloading")
	f.BoolVar(&force, "force", false, "download even when the registry is recent")
	return cmd
}

func newOUILookupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <mac>",
		Short: "Resolve the vendor of a MAC address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.NewPipeline(e.cfg, e.logger)
			defer p.Close()

			info, err := p.Resolver.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MAC:     %s\n", info.MAC)
			fmt.Fprintf(out, "OUI:     %s\n", info.OUI)
			fmt.Fprintf(out, "Vendor:  %s\n", info.Vendor)
			if info.LocallyAdministered {
				fmt.Fprintln(out, "Note:    locally administered address")
			}
			return nil
		},
	}
}

func newOUISearchCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find registry entries by vendor name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.NewPipeline(e.cfg, e.logger)
			defer p.Close()

			entries, err := p.Resolver.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Prefix", "Vendor", "Country")
			for _, en := range entries {
				_ = table.Append([]string{en.Prefix, en.Vendor, en.Country})
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}
