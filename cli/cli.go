// Package cli wires the cassette-management commands. Session control
// (record/replay) is a library concern; the CLI operates on the cassette
// store: list, show and delete.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
	"github.com/stubtape/stubtape/pkg/platform/yaml/cassettedb"
)

type HookFunc func(context.Context, *zap.Logger, *config.Config, Services) *cobra.Command

// Registered holds the registered command hooks
var Registered map[string]HookFunc

func Register(name string, f HookFunc) {
	if Registered == nil {
		Registered = make(map[string]HookFunc)
	}
	Registered[name] = f
}

// Services holds the services required by the commands
type Services struct {
	CassetteDB *cassettedb.CassetteYaml
}

func NewServices(db *cassettedb.CassetteYaml) Services {
	return Services{CassetteDB: db}
}
