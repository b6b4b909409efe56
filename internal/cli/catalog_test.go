package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveShowListDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")
	def := writeFile(t, t.TempDir(), "contacts.yaml", contactsDefinition)

	out, err := execute(t, "--db", db, "save", "contacts", "-f", def)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Saved contacts")

	_, err = execute(t, "--db", db, "save", "accounts", "--entity", "account", "--count", "10")
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "show", "contacts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<fetch mapping="logical" distinct="true">`), out)
	assert.Contains(t, out, `<attribute name="lastname" alias="surname"/>`)

	out, err = execute(t, "--db", db, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "accounts"))
	assert.True(t, strings.HasPrefix(lines[2], "contacts"))

	out, err = execute(t, "--db", db, "delete", "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted accounts")

	_, err = execute(t, "--db", db, "show", "accounts")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSaveJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	out, err := execute(t, "--db", db, "--format", "json", "save", "contacts", "--entity", "contact", "--attr", "fullname")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SavedQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "contacts", resp.Data.Name)
	assert.Equal(t, "contact", resp.Data.Entity)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.Equal(t, `<fetch mapping="logical" distinct="false"><entity name="contact"><attribute name="fullname"/></entity></fetch>`, resp.Data.XML)
}

func TestSaveReplacesByName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	_, err := execute(t, "--db", db, "save", "q", "--entity", "contact")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "save", "q", "--entity", "account")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "list")
	require.NoError(t, err)

	var resp struct {
		Data []SavedQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "account", resp.Data[0].Entity)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
}

func TestSaveRejectedQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	out, err := execute(t, "--db", db, "save", "bad", "--entity", "contact", "--order", "")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")

	out, err = execute(t, "--db", db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved queries.")
}

func TestSaveBlankName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	out, err := execute(t, "--db", db, "save", "  ", "--entity", "contact")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestShowNotFoundJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	out, err := execute(t, "--db", db, "--format", "json", "show", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQueryNotFound, resp.Error.Code)
}

func TestDeleteNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	out, err := execute(t, "--db", db, "delete", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]")
}

func TestCatalogFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(EnvDB, db)

	_, err := execute(t, "save", "contacts", "--entity", "contact")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "show", "contacts")
	require.NoError(t, err)
	assert.Contains(t, out, `<entity name="contact"/>`)
}

func TestCatalogOpenFailure(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "dir", "queries.db")

	out, err := execute(t, "--db", db, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestSaveReportsSameQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "queries.db")

	_, err := execute(t, "--db", db, "save", "first", "--entity", "contact", "--attr", "fullname")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "save", "other", "--entity", "account")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "save", "second", "--entity", "contact", "--attr", "fullname", "--count", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "same query as: first")

	out, err = execute(t, "--db", db, "--format", "json", "save", "third", "--entity", "contact", "-a", "fullname")
	require.NoError(t, err)

	var resp struct {
		Data SavedQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"first", "second"}, resp.Data.SameAs)
}
