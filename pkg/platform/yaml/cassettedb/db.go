// Package cassettedb persists cassettes as YAML documents, one file per
// recording name, in a configured storage directory.
package cassettedb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/platform/yaml"
	"github.com/stubtape/stubtape/utils"
)

type CassetteYaml struct {
	CassettePath string
	Logger       *zap.Logger
}

func New(logger *zap.Logger, cassettePath string) *CassetteYaml {
	return &CassetteYaml{
		CassettePath: cassettePath,
		Logger:       logger,
	}
}

// Info summarizes one persisted cassette for listings.
type Info struct {
	Name       string
	Entries    int
	Version    models.Version
	RecordedAt time.Time
}

// Exists reports whether a cassette with the given name is persisted.
// Side-effect free.
func (db *CassetteYaml) Exists(name string) bool {
	if db.CassettePath == "" {
		return false
	}
	return yaml.FileExists(db.CassettePath, name)
}

// Load reads, version-checks and decodes the named cassette. The load is
// atomic: on any failure no entries are populated.
func (db *CassetteYaml) Load(ctx context.Context, name string) (*models.Cassette, error) {
	if db.CassettePath == "" {
		return nil, models.ErrNoCassetteDir
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := yaml.ReadFile(db.CassettePath, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", models.ErrCassetteNotFound, name)
		}
		utils.LogError(db.Logger, err, "failed to read the cassette file", zap.String("cassette", name))
		return nil, err
	}
	cassette, err := decodeCassette(name, data)
	if err != nil {
		utils.LogError(db.Logger, err, "failed to decode the cassette file", zap.String("cassette", name))
		return nil, err
	}
	db.Logger.Debug("loaded cassette from storage",
		zap.String("cassette", name),
		zap.Int("entries", cassette.Len()))
	return cassette, nil
}

// Save rewrites the whole cassette file. There is no partial or append
// persistence; the written document is the cassette's sole durable state.
func (db *CassetteYaml) Save(ctx context.Context, cassette *models.Cassette) error {
	if db.CassettePath == "" {
		return models.ErrNoCassetteDir
	}
	data, err := encodeCassette(cassette)
	if err != nil {
		utils.LogError(db.Logger, err, "failed to encode the cassette", zap.String("cassette", cassette.Name))
		return err
	}
	if err := yaml.WriteFile(ctx, db.Logger, db.CassettePath, cassette.Name, data); err != nil {
		return err
	}
	db.Logger.Info("saved cassette",
		zap.String("cassette", cassette.Name),
		zap.Int("entries", cassette.Len()))
	return nil
}

// Delete removes the named cassette file.
func (db *CassetteYaml) Delete(_ context.Context, name string) error {
	if db.CassettePath == "" {
		return models.ErrNoCassetteDir
	}
	path, err := yaml.ValidatePath(filepath.Join(db.CassettePath, name+yaml.Extension))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", models.ErrCassetteNotFound, name)
		}
		return err
	}
	db.Logger.Info("deleted cassette", zap.String("cassette", name))
	return nil
}

// DeleteAll removes every persisted cassette in the storage directory and
// returns the names that were removed.
func (db *CassetteYaml) DeleteAll(ctx context.Context) ([]string, error) {
	names, err := db.names()
	if err != nil {
		return nil, err
	}
	deleted := make([]string, 0, len(names))
	for _, name := range names {
		if err := db.Delete(ctx, name); err != nil {
			return deleted, err
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}

// List loads every cassette in the storage directory and summarizes it.
// Files that fail to decode are skipped with a warning so one foreign file
// does not hide the rest.
func (db *CassetteYaml) List(ctx context.Context) ([]Info, error) {
	names, err := db.names()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		cassette, err := db.Load(ctx, name)
		if err != nil {
			db.Logger.Warn("skipping unreadable cassette file",
				zap.String("cassette", name), zap.Error(err))
			continue
		}
		infos = append(infos, Info{
			Name:       cassette.Name,
			Entries:    cassette.Len(),
			Version:    cassette.Version,
			RecordedAt: cassette.RecordedAt,
		})
	}
	return infos, nil
}

func (db *CassetteYaml) names() ([]string, error) {
	if db.CassettePath == "" {
		return nil, models.ErrNoCassetteDir
	}
	files, err := os.ReadDir(db.CassettePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), yaml.Extension) {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), yaml.Extension))
	}
	return names, nil
}
