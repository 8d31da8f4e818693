package migration

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/factuurdesk/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func readUp(t *testing.T, dir string, version uint) string {
	t.Helper()
	src, err := Source(dir)
	require.NoError(t, err)
	defer src.Close()

	r, _, err := src.ReadUp(version)
	require.NoError(t, err)
	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestSource_Embedded(t *testing.T) {
	src, err := Source("")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	_, err = src.Next(next)
	assert.ErrorIs(t, err, os.ErrNotExist)

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	_ = down.Close()
}

func TestSource_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_seed.up.sql"), []byte("SELECT 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_seed.down.sql"), []byte("SELECT 0;"), 0o644))

	assert.Equal(t, "SELECT 1;", readUp(t, dir, 7))
}

func TestSource_MissingDirectory(t *testing.T) {
	_, err := Source(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

// Every column the persistence models map must exist in the schema.
func TestMigrations_CoverModelColumns(t *testing.T) {
	ddl := readUp(t, "", 1) + readUp(t, "", 2)

	cache := &sync.Map{}
	for _, model := range []any{&models.InvoiceModel{}, &models.LineItemModel{}, &models.TemplateModel{}} {
		s, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+s.Table+" (")
		for _, name := range s.DBNames {
			assert.True(t, strings.Contains(ddl, "\n    "+name+" "),
				"column %s.%s missing from migrations", s.Table, name)
		}
	}
}

func TestVersionsAfter(t *testing.T) {
	src, err := Source("")
	require.NoError(t, err)
	defer src.Close()

	pending, err := versionsAfter(src, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, pending)

	pending, err = versionsAfter(src, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, pending)

	pending, err = versionsAfter(src, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "embedded", SourceName(""))
	assert.Equal(t, "/srv/migrations", SourceName("/srv/migrations"))
}
