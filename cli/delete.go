package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
)

func init() {
	Register("delete", Delete)
}

func Delete(ctx context.Context, logger *zap.Logger, _ *config.Config, svc Services) *cobra.Command {
	var all bool
	var cmd = &cobra.Command{
		Use:     "delete [cassette]",
		Short:   "delete one cassette, or every cassette with --all",
		Example: `stubtape delete checkout-flow` + "\n" + `stubtape delete --all`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				deleted, err := svc.CassetteDB.DeleteAll(ctx)
				if err != nil {
					logger.Error("failed to delete cassettes", zap.Error(err))
					return err
				}
				logger.Info("deleted cassettes", zap.Strings("cassettes", deleted))
				return nil
			}
			if len(args) == 0 {
				return errors.New("a cassette name or --all is required")
			}
			if err := svc.CassetteDB.Delete(ctx, args[0]); err != nil {
				logger.Error("failed to delete cassette", zap.String("cassette", args[0]), zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every cassette in the storage directory")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
