package orchestrator

import (
	"context"

	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/platform/yaml/cassettedb"
)

// CassetteDB is the persistence surface the orchestrator drives. Implemented
// by the YAML cassette store.
type CassetteDB interface {
	Exists(name string) bool
	Load(ctx context.Context, name string) (*models.Cassette, error)
	Save(ctx context.Context, cassette *models.Cassette) error
	DeleteAll(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]cassettedb.Info, error)
}
