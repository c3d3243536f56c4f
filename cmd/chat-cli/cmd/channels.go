package cmd

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nfrund/chatwire/internal/client"
)

var channelsFormat string

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channels exposed by the hub",
	Long: `List the channels registered on the hub.

Examples:
  chat-cli channels                 # table format
  chat-cli channels --format json   # JSON format`,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().Channels(cmd.Context())
		if err != nil {
			return err
		}

		switch channelsFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		case "table":
			renderChannelsTable(cmd.OutOrStdout(), list)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q, use table or json", channelsFormat)
		}
	},
}

func renderChannelsTable(w io.Writer, list []client.ChannelInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Direction", "Description"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, ch := range list {
		table.Append([]string{ch.Name, ch.Direction, ch.Description})
	}
	table.Render()
}

func init() {
	channelsCmd.Flags().StringVarP(&channelsFormat, "format", "f", "table", "Output format (table, json)")
	rootCmd.AddCommand(channelsCmd)
}
