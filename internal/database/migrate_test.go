package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestEmbeddedMigrations_Ordered(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(all[0].Version))
	assert.Nil(t, GetMigrationByVersion(999999))
	assert.Equal(t, "000001_identity_and_graph", all[0].String())
}

func TestLoadMigrations(t *testing.T) {
	t.Run("pairs up and down scripts", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/000002_b.up.sql":   {Data: []byte("B UP")},
			"migrations/000002_b.down.sql": {Data: []byte("B DOWN")},
			"migrations/000001_a.up.sql":   {Data: []byte("A UP")},
			"migrations/000001_a.down.sql": {Data: []byte("A DOWN")},
		}
		got, err := LoadMigrations(fsys)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "B DOWN", got[1].DownScript)
	})

	t.Run("missing down script", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/000001_a.up.sql": {Data: []byte("A UP")},
		}
		_, err := LoadMigrations(fsys)
		assert.Error(t, err)
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/000001_a.up.sql":   {Data: []byte("A")},
			"migrations/000001_a.down.sql": {Data: []byte("A")},
			"migrations/000001_b.up.sql":   {Data: []byte("B")},
			"migrations/000001_b.down.sql": {Data: []byte("B")},
		}
		_, err := LoadMigrations(fsys)
		assert.Error(t, err)
	})
}

func testMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "probes", UpScript: "CREATE TABLE probes (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE probes"},
		{Version: 2, Name: "probe_tags", UpScript: "CREATE TABLE probe_tags (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE probe_tags"},
	}
}

func newMigratorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	db := newMigratorDB(t)
	m := NewMigrator(db, testMigrations())
	ctx := context.Background()

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	n, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("probe_tags"))

	n, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	applied, err := m.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, testMigrations()[0].Checksum(), applied[0].Checksum)
}

func TestMigrator_Down(t *testing.T) {
	db := newMigratorDB(t)
	m := NewMigrator(db, testMigrations())
	ctx := context.Background()
	_, err := m.Up(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Down(ctx, 2))
	assert.False(t, db.Migrator().HasTable("probe_tags"))
	assert.Error(t, m.Down(ctx, 2), "already rolled back")
	assert.Error(t, m.Down(ctx, 9), "unknown version")

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)
}

func TestMigrator_RefusesDrift(t *testing.T) {
	db := newMigratorDB(t)
	ctx := context.Background()
	_, err := NewMigrator(db, testMigrations()).Up(ctx)
	require.NoError(t, err)

	edited := testMigrations()
	edited[0].UpScript += " -- edited"
	_, err = NewMigrator(db, edited).Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_probes")

	older := testMigrations()[:1]
	_, err = NewMigrator(db, older).Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000002")
}

func TestMigrator_LegacyRowsWithoutChecksum(t *testing.T) {
	m := NewMigrator(nil, testMigrations())
	assert.NoError(t, m.verify([]MigrationLog{{Version: 1}, {Version: 2}}))
	assert.NoError(t, m.verify(nil))
}
