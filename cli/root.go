package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
	"github.com/stubtape/stubtape/utils"
	"github.com/stubtape/stubtape/utils/log"
)

// Root builds the stubtape command tree. Configuration precedence is flags
// over config file over defaults.
func Root(ctx context.Context, logger *zap.Logger, cfg *config.Config, svc Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubtape",
		Short: "manage recorded cassettes of intercepted RPC calls",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				utils.LogError(logger, err, "failed to load the configuration")
				return err
			}
			if cfg.Debug {
				log.SetLevel(zap.DebugLevel)
			}
			svc.CassetteDB.CassettePath = cfg.Path
			return nil
		},
	}

	cmd.PersistentFlags().StringP("path", "p", cfg.Path, "Path to the directory where cassettes are stored")
	cmd.PersistentFlags().Bool("debug", cfg.Debug, "Run in debug mode")
	cmd.PersistentFlags().Bool("disableANSI", cfg.DisableANSI, "Disable ANSI coloring in output")
	cmd.PersistentFlags().String("configPath", cfg.ConfigPath, "Path to the directory holding the stubtape config file")

	for _, hook := range Registered {
		cmd.AddCommand(hook(ctx, logger, cfg, svc))
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()
	v.SetConfigName("stubtape")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfg.ConfigPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}
