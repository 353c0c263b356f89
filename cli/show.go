package cli

import (
	"context"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
)

func init() {
	Register("show", Show)
}

func Show(ctx context.Context, logger *zap.Logger, cfg *config.Config, svc Services) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "show <cassette>",
		Short:   "dump the recorded entries of one cassette",
		Example: `stubtape show checkout-flow`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cassette, err := svc.CassetteDB.Load(ctx, args[0])
			if err != nil {
				logger.Error("failed to load cassette", zap.String("cassette", args[0]), zap.Error(err))
				return err
			}

			printer := pp.New()
			printer.SetColoringEnabled(!cfg.DisableANSI)
			for idx, entry := range cassette.Entries() {
				printer.Printf("--- entry %d ---\n", idx)
				printer.Println(entry.Req)
				printer.Println(entry.Resp)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
