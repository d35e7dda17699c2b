package database

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage-backend/migrations"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		label     string
		direction string
		ok        bool
	}{
		{"20250101000001_create_users.up.sql", "20250101000001", "create_users", "up", true},
		{"20250101000001_create_users.down.sql", "20250101000001", "create_users", "down", true},
		{"2025_create_users.up.sql", "", "", "", false},
		{"20250101000001_create_users.sql", "", "", "", false},
		{"20250101000001_Create-Users.up.sql", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, label, direction, ok := parseFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.direction, direction)
		})
	}
}

func TestParseMigrationsSortsAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"20250102000000_b.up.sql":   {Data: []byte("CREATE TABLE b ();")},
		"20250102000000_b.down.sql": {Data: []byte("DROP TABLE b;")},
		"20250101000000_a.up.sql":   {Data: []byte("CREATE TABLE a ();")},
		"README.md":                 {Data: []byte("ignored")},
	}

	migs, err := ParseMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)

	assert.Equal(t, "20250101000000", migs[0].Version)
	assert.Equal(t, "a", migs[0].Name)
	assert.Empty(t, migs[0].Down)
	assert.Equal(t, "b", migs[1].Name)
	assert.Equal(t, "DROP TABLE b;", migs[1].Down)
}

func TestParseMigrationsRejectsBadInput(t *testing.T) {
	_, err := ParseMigrations(fstest.MapFS{
		"001_init.up.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err)

	_, err = ParseMigrations(fstest.MapFS{
		"20250101000000_a.down.sql": {Data: []byte("DROP TABLE a;")},
	})
	assert.ErrorContains(t, err, "no up script")

	_, err = ParseMigrations(fstest.MapFS{
		"20250101000000_a.up.sql": {Data: []byte("SELECT 1;")},
		"20250101000000_b.up.sql": {Data: []byte("SELECT 2;")},
	})
	assert.ErrorContains(t, err, "already used")
}

func TestPendingAndLastApplied(t *testing.T) {
	all := []Migration{{Version: "1"}, {Version: "2"}, {Version: "3"}}
	applied := map[string]time.Time{"1": time.Now(), "2": time.Now()}

	p := pending(all, applied)
	require.Len(t, p, 1)
	assert.Equal(t, "3", p[0].Version)

	last := lastApplied(all, applied, 5)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].Version)
	assert.Equal(t, "1", last[1].Version)

	assert.Len(t, lastApplied(all, applied, 1), 1)
}

func TestEmbeddedMigrationsAreWellFormed(t *testing.T) {
	migs, err := ParseMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, migs)

	for _, m := range migs {
		assert.NotEmpty(t, m.Down, "migration %s_%s has no down script", m.Version, m.Name)
	}
	assert.Equal(t, "create_users", migs[0].Name)
}
