package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/docsql/cli/internal/config"
)

// setupProject creates a sqlite database, a documents file and a config file
// and returns the config path.
func setupProject(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT, first_name TEXT, status TEXT)`,
		`INSERT INTO users (email, first_name, status) VALUES ('ada@example.com', 'Ada', 'active')`,
		`INSERT INTO users (email, first_name, status) VALUES ('bob@example.com', 'Bob', 'active')`,
		`INSERT INTO users (email, first_name, status) VALUES ('cy@example.com', 'Cy', 'banned')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	docs := filepath.Join(dir, "documents.yaml")
	require.NoError(t, os.WriteFile(docs, []byte(sampleDocuments), 0644))

	cfgPath := filepath.Join(dir, ".docsql.yaml")
	require.NoError(t, config.SaveConfig(&config.Config{
		Provider:      "sqlite",
		DatabaseURL:   dbPath,
		DocumentsPath: docs,
	}, cfgPath))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommandNamedParams(t *testing.T) {
	cfg := setupProject(t)

	out, err := run(t, "query", "SELECT id, email FROM users WHERE status = :status ORDER BY id",
		"--param", "status=active", "-o", "json", "--config", cfg)
	require.NoError(t, err)

	var payload struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Rows, 2)
	assert.Equal(t, "ada@example.com", payload.Rows[0]["email"])
}

func TestQueryCommandPagingWithCount(t *testing.T) {
	cfg := setupProject(t)

	out, err := run(t, "query", "SELECT id FROM users WHERE status = :status",
		"-p", "status=active", "--limit", "1", "--offset", "1", "--count", "-o", "json", "--config", cfg)
	require.NoError(t, err)

	var payload struct {
		Rows  []map[string]any `json:"rows"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Rows, 1)
	assert.EqualValues(t, 2, payload.Rows[0]["id"])
	assert.Equal(t, int64(2), payload.Total)
}

func TestQueryCommandWithoutResultSet(t *testing.T) {
	cfg := setupProject(t)

	out, err := run(t, "query", "UPDATE users SET status = :status WHERE id = :id",
		"-p", "status=banned", "-p", "id=1", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE OK, 1 rows affected\n", out)
}

func TestQueryCommandErrors(t *testing.T) {
	cfg := setupProject(t)

	_, err := run(t, "query", "--config", cfg)
	assert.EqualError(t, err, "pass a statement or --file")

	_, err = run(t, "query", "SELECT 1", "-p", "broken", "--config", cfg)
	assert.ErrorContains(t, err, "expected name=value")

	_, err = run(t, "query", "SELECT 1", "--watch", "--config", cfg)
	assert.EqualError(t, err, "--watch needs --file")
}

func TestQueryCommandFromFile(t *testing.T) {
	cfg := setupProject(t)
	file := filepath.Join(filepath.Dir(cfg), "count.sql")
	require.NoError(t, afero.WriteFile(config.AppFs, file, []byte("SELECT count(*) AS n FROM users\n"), 0644))

	out, err := run(t, "query", "--file", file, "-o", "json", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"n": 3`)
}

func TestFindCommand(t *testing.T) {
	cfg := setupProject(t)

	out, err := run(t, "find", "User", "--where", `{"status":"active"}`, "--sort", "-id", "-o", "json", "--config", cfg)
	require.NoError(t, err)

	var payload struct {
		Documents []map[string]any `json:"documents"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Documents, 2)
	assert.Equal(t, "Bob", payload.Documents[0]["firstName"])

	out, err = run(t, "find", "User", "--id", "3", "-o", "json", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "cy@example.com")

	_, err = run(t, "find", "Order", "--config", cfg)
	assert.EqualError(t, err, `unknown document "Order"`)

	_, err = run(t, "find", "User", "--where", "{", "--config", cfg)
	assert.ErrorContains(t, err, "invalid --where")
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery(&findOptions{sort: "name, -created_at,", limit: 5, skip: 10, count: true})
	require.NoError(t, err)
	require.Len(t, q.Sort, 2)
	assert.False(t, q.Sort[0].Desc())
	assert.Equal(t, "created_at", q.Sort[1].Field)
	assert.True(t, q.Sort[1].Desc())
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Skip)
	assert.True(t, q.CountFoundRows)
}

func TestPingCommand(t *testing.T) {
	cfg := setupProject(t)

	out, err := run(t, "ping", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite 3.")

	_, err = run(t, "ping", "--require", ">= 99", "--config", cfg)
	assert.ErrorContains(t, err, "does not satisfy")
}

func TestInitCommand(t *testing.T) {
	prev := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = prev })
	t.Setenv("DATABASE_URL", "")

	_, err := run(t, "init", "--yes", "--provider", "sqlite", "--url", "app.db",
		"--documents", "/proj/documents.yaml", "--path", "/proj/.docsql.yaml")
	require.NoError(t, err)

	data, err := afero.ReadFile(config.AppFs, "/proj/documents.yaml")
	require.NoError(t, err)
	assert.Equal(t, sampleDocuments, string(data))

	cfg, err := config.LoadConfig("/proj/.docsql.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Provider)
	assert.Equal(t, "app.db", cfg.DatabaseURL)

	_, err = run(t, "init", "--yes", "--path", "/proj/.docsql.yaml")
	assert.ErrorContains(t, err, "already exists")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docsql version "+Version)
	assert.Contains(t, out, "Git Commit: "+GitCommit)

	out, err = run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0\n", out)
}

func TestVersionCommandRejectsBadBuildVersion(t *testing.T) {
	old := Version
	Version = "not-a-version"
	t.Cleanup(func() { Version = old })

	_, err := run(t, "version")
	assert.ErrorContains(t, err, "invalid build version")
}
