package cli

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
)

func init() {
	Register("list", List)
}

func List(ctx context.Context, logger *zap.Logger, _ *config.Config, svc Services) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "list",
		Short:   "list the persisted cassettes",
		Example: `stubtape list -p "/path/to/cassettes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := svc.CassetteDB.List(ctx)
			if err != nil {
				logger.Error("failed to list cassettes", zap.Error(err))
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Cassette", "Entries", "Version", "Recorded At"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, info := range infos {
				table.Append([]string{
					info.Name,
					strconv.Itoa(info.Entries),
					strconv.Itoa(int(info.Version)),
					info.RecordedAt.Format(time.RFC3339),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
