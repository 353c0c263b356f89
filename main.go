package main

import (
	"context"
	"os"

	"github.com/stubtape/stubtape/cli"
	"github.com/stubtape/stubtape/config"
	"github.com/stubtape/stubtape/pkg/platform/yaml/cassettedb"
	"github.com/stubtape/stubtape/utils"
	"github.com/stubtape/stubtape/utils/log"
)

// version is injected during build by ldflags.
var version string

func main() {
	if version == "" {
		version = "2-dev"
	}

	logger, err := log.New()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	defer utils.Recover(logger)

	cfg := config.New()
	db := cassettedb.New(logger, cfg.Path)

	ctx := context.Background()
	root := cli.Root(ctx, logger, cfg, cli.NewServices(db))
	root.Version = version
	if err := root.Execute(); err != nil {
		utils.LogError(logger, err, "command failed")
		os.Exit(1)
	}
}
