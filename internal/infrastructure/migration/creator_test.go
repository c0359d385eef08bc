package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add users table", "add_users_table"},
		{"Add-Users-Table", "add_users_table"},
		{"ADD_USERS_TABLE", "add_users_table"},
		{"add__users__table", "add_users_table"},
		{"Add Users 123", "add_users_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers the first migration 1", func(t *testing.T) {
		mem := afero.NewMemMapFs()

		mf, err := CreateMigration(mem, "db/migrations", "add users table")
		require.NoError(t, err)
		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, "db/migrations/000001_add_users_table.up.sql", mf.UpPath)
		assert.Equal(t, "db/migrations/000001_add_users_table.down.sql", mf.DownPath)

		up, err := afero.ReadFile(mem, mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add_users_table")

		down, err := afero.ReadFile(mem, mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
	})

	t.Run("continues after the highest version", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(mem, "m/000001_init.up.sql", []byte("--"), 0o644))
		require.NoError(t, afero.WriteFile(mem, "m/000007_orders.up.sql", []byte("--"), 0o644))

		mf, err := CreateMigration(mem, "m", "Add Coupons")
		require.NoError(t, err)
		assert.Equal(t, uint(8), mf.Version)
		assert.True(t, strings.HasSuffix(mf.UpPath, "000008_add_coupons.up.sql"))
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := CreateMigration(afero.NewMemMapFs(), "m", "!!!")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and ignores other files", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		for _, name := range []string{
			"000010_add_reviews.up.sql",
			"000010_add_reviews.down.sql",
			"000002_add_users.up.sql",
			"000002_add_users.down.sql",
			"README.md",
			"draft.up.sql",
		} {
			require.NoError(t, afero.WriteFile(mem, "m/"+name, []byte("--"), 0o644))
		}
		require.NoError(t, mem.Mkdir("m/000011_dir.up.sql", 0o755))

		files, err := ListMigrations(mem, "m")
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, uint(2), files[0].Version)
		assert.Equal(t, "add_users", files[0].Name)
		assert.Equal(t, uint(10), files[1].Version)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		files, err := ListMigrations(afero.NewMemMapFs(), "/nonexistent")
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)

	files, err := ListMigrations(afero.FromIOFS{FS: migrations.FS}, ".")
	require.NoError(t, err)
	for i, f := range files {
		assert.Equal(t, uint(i+1), f.Version, "migration versions must be contiguous")
	}
}
