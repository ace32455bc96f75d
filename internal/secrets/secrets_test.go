package secrets_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mardi4nfdi/mardikit/internal/secrets"
)

// writeSecretsFile creates a secrets file with the given content in a
// per-test temp directory and returns its path.
func writeSecretsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secrets.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_WellFormed(t *testing.T) {
	path := writeSecretsFile(t, "mardi-kg-user=alice\nmardi-kg-password=secret123\n")

	creds, err := secrets.Load(path)

	require.NoError(t, err)
	assert.Equal(t, secrets.Credentials{
		"mardi-kg-user":     "alice",
		"mardi-kg-password": "secret123",
	}, creds)
}

func TestLoad_TrimsWhitespace(t *testing.T) {
	path := writeSecretsFile(t, "  mardi-kg-user = alice \n")

	creds, err := secrets.Load(path)

	require.NoError(t, err)
	assert.Equal(t, secrets.Credentials{"mardi-kg-user": "alice"}, creds)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeSecretsFile(t, "")

	creds, err := secrets.Load(path)

	require.NoError(t, err)
	assert.NotNil(t, creds)
	assert.Empty(t, creds)
}

func TestLoad_NonexistentPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.conf")

	creds, err := secrets.Load(path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Nil(t, creds)
}

func TestLoad_Idempotent(t *testing.T) {
	path := writeSecretsFile(t, "lakefs-user=bob\nlakefs-password=hunter2\n")

	first, err := secrets.Load(path)
	require.NoError(t, err)
	second, err := secrets.Load(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_DuplicateKeyLastWriteWins(t *testing.T) {
	creds, err := secrets.Parse(strings.NewReader("key=first\nkey=second\n"))

	require.NoError(t, err)
	assert.Equal(t, secrets.Credentials{"key": "second"}, creds)
}

func TestParse_SkipsLinesWithoutEquals(t *testing.T) {
	creds, err := secrets.Parse(strings.NewReader("not a credential line\nuser=alice\n\n"))

	require.NoError(t, err)
	assert.Equal(t, secrets.Credentials{"user": "alice"}, creds)
}

func TestParse_SplitsOnFirstEquals(t *testing.T) {
	creds, err := secrets.Parse(strings.NewReader("password=a=b=c\n"))

	require.NoError(t, err)
	assert.Equal(t, secrets.Credentials{"password": "a=b=c"}, creds)
}

func TestLookup_Found(t *testing.T) {
	creds := secrets.Credentials{
		"ipfs-user":     "alice",
		"ipfs-password": "secret",
	}

	pair, err := creds.Lookup("ipfs")

	require.NoError(t, err)
	assert.Equal(t, secrets.Pair{User: "alice", Password: "secret"}, pair)
}

func TestLookup_MissingPassword(t *testing.T) {
	creds := secrets.Credentials{"lakefs-user": "alice"}

	_, err := creds.Lookup("lakefs")

	require.Error(t, err)
	var missing *secrets.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "lakefs", missing.Name)
	assert.Contains(t, err.Error(), "lakefs-user")
	assert.Contains(t, err.Error(), "lakefs-password")
}
