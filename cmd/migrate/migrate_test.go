package migrate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	n, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = parseSteps([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseSteps([]string{"-1"})
	assert.Error(t, err)

	_, err = parseSteps([]string{"many"})
	assert.Error(t, err)
}

func TestNewMigrateRejectsInput(t *testing.T) {
	_, err := newMigrate(&migrateCmdOptions{})
	assert.ErrorContains(t, err, "--database is required")

	_, err = newMigrate(&migrateCmdOptions{DatabaseURL: "mysql://localhost/estate", Source: estateMigrationSource})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestCloneURLWithQuery(t *testing.T) {
	u, err := url.Parse("postgres://localhost:5432/estate?sslmode=disable")
	require.NoError(t, err)

	clone := cloneURLWithQuery(u, url.Values{"x-migrations-table": {estateMigrationTable}})
	assert.Equal(t, "disable", clone.Query().Get("sslmode"))
	assert.Equal(t, estateMigrationTable, clone.Query().Get("x-migrations-table"))
	assert.Empty(t, u.Query().Get("x-migrations-table"))
}
