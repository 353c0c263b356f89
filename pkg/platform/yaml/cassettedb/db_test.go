package cassettedb

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/pkg/models"
)

func exactMatch(a, b models.Request) bool {
	return a.Method == b.Method && reflect.DeepEqual(a.Args, b.Args)
}

func newTestDB(t *testing.T) *CassetteYaml {
	t.Helper()
	return New(zap.NewNop(), t.TempDir())
}

func recordedCassette(t *testing.T) *models.Cassette {
	t.Helper()
	c := models.NewCassette("checkout")
	ok := c.Append(
		models.Request{Method: "Get", Args: map[string]interface{}{"id": 1, "opts": map[string]interface{}{"verbose": true}}},
		models.Response{Result: map[string]interface{}{"name": "bolt", "price": 2.5}},
		exactMatch,
	)
	require.True(t, ok)
	ok = c.Append(
		models.Request{Method: "Submit", Args: map[string]interface{}{"items": []interface{}{"a", "b"}}},
		models.Response{Result: map[string]interface{}{"status": "accepted"}, Deferred: true},
		exactMatch,
	)
	require.True(t, ok)
	return c
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	saved := recordedCassette(t)

	require.NoError(t, db.Save(ctx, saved))
	require.True(t, db.Exists("checkout"))

	loaded, err := db.Load(ctx, "checkout")
	require.NoError(t, err)

	assert.Equal(t, "checkout", loaded.Name)
	assert.Equal(t, models.SchemaVersion, loaded.Version)
	require.Equal(t, saved.Len(), loaded.Len())

	savedEntries := saved.Entries()
	loadedEntries := loaded.Entries()
	for i := range savedEntries {
		assert.Equal(t, savedEntries[i].Req.Method, loadedEntries[i].Req.Method)
		assert.Equal(t, savedEntries[i].Resp.Deferred, loadedEntries[i].Resp.Deferred)
	}

	// Insertion order survives the round trip.
	assert.Equal(t, "Get", loadedEntries[0].Req.Method)
	assert.Equal(t, "Submit", loadedEntries[1].Req.Method)
}

func TestLoad_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrCassetteNotFound)
}

func TestLoad_VersionMismatch(t *testing.T) {
	db := newTestDB(t)
	doc := "version: 1\nrecorded_at: 2026-01-02T15:04:05Z\nreqs:\n    - - method: Get\n        args:\n            id: 1\n      - result: ok\n"
	require.NoError(t, os.WriteFile(filepath.Join(db.CassettePath, "old.yaml"), []byte(doc), 0644))

	cassette, err := db.Load(context.Background(), "old")
	assert.ErrorIs(t, err, models.ErrVersionMismatch)
	assert.Nil(t, cassette)
}

func TestLoad_CorruptData(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, os.WriteFile(filepath.Join(db.CassettePath, "bad.yaml"), []byte("version: 2\nreqs: {not: [a, pair"), 0644))

	_, err := db.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestLoad_EntryMustBePair(t *testing.T) {
	db := newTestDB(t)
	doc := "version: 2\nreqs:\n    - - method: Get\n"
	require.NoError(t, os.WriteFile(filepath.Join(db.CassettePath, "odd.yaml"), []byte(doc), 0644))

	_, err := db.Load(context.Background(), "odd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pair")
}

func TestSave_RewritesWholeFile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first := models.NewCassette("flow")
	require.True(t, first.Append(
		models.Request{Method: "Get", Args: map[string]interface{}{"id": 1}},
		models.Response{Result: "one"}, exactMatch))
	require.NoError(t, db.Save(ctx, first))

	second := models.NewCassette("flow")
	require.True(t, second.Append(
		models.Request{Method: "Get", Args: map[string]interface{}{"id": 2}},
		models.Response{Result: "two"}, exactMatch))
	require.NoError(t, db.Save(ctx, second))

	loaded, err := db.Load(ctx, "flow")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, map[string]interface{}{"id": 2}, loaded.Entries()[0].Req.Args)
}

func TestExists(t *testing.T) {
	db := newTestDB(t)
	assert.False(t, db.Exists("nope"))

	require.NoError(t, db.Save(context.Background(), recordedCassette(t)))
	assert.True(t, db.Exists("checkout"))
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.Save(ctx, recordedCassette(t)))
	other := models.NewCassette("other")
	require.NoError(t, db.Save(ctx, other))

	deleted, err := db.DeleteAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"checkout", "other"}, deleted)
	assert.False(t, db.Exists("checkout"))
	assert.False(t, db.Exists("other"))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Save(ctx, recordedCassette(t)))

	// A foreign file must not hide the readable cassettes.
	require.NoError(t, os.WriteFile(filepath.Join(db.CassettePath, "junk.yaml"), []byte("version: 99\n"), 0644))

	infos, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "checkout", infos[0].Name)
	assert.Equal(t, 2, infos[0].Entries)
}

func TestUnconfiguredDir(t *testing.T) {
	db := New(zap.NewNop(), "")
	_, err := db.Load(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrNoCassetteDir)

	err = db.Save(context.Background(), models.NewCassette("x"))
	assert.ErrorIs(t, err, models.ErrNoCassetteDir)

	assert.False(t, db.Exists("x"))
}
