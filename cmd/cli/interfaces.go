package cli

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/wifiradar/internal/app"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func newInterfacesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "interfaces",
		Aliases: []string{"ifaces"},
		Short:   "List wireless interfaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := app.NewPipeline(e.cfg, e.logger)
			defer p.Close()

			ifaces, err := p.Discovery.ListInterfaces(cmd.Context())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Name", "MAC", "Phy", "Mode", "State", "Bands", "Monitor")
			for _, i := range ifaces {
				_ = table.Append(interfaceRow(i))
			}
			return table.Render()
		},
	}
}

func interfaceRow(i domain.InterfaceInfo) []string {
	bands := make([]string, len(i.Capabilities.SupportedBands))
	for n, b := range i.Capabilities.SupportedBands {
		bands[n] = string(b)
	}
	monitor := "no"
	if i.Capabilities.SupportsMonitor {
		monitor = "yes"
	}
	return []string{i.Name, i.MAC, i.Phy, i.Mode, i.OperState, strings.Join(bands, ","), monitor}
}
