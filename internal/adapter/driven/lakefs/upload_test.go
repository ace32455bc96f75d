package lakefs_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_BuildsBranchPrefixedKey(t *testing.T) {
	var gotMethod, gotPath string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	localPath := filepath.Join(t.TempDir(), "linker.db")
	require.NoError(t, os.WriteFile(localPath, []byte("payload"), 0o600))

	client := newTestClient(t, handler)
	err := client.Upload(context.Background(), []string{localPath}, "/uploads/")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	// Path-style S3 key: /<repository>/<branch>/<subpath>/<filename>
	assert.Equal(t, "/sandbox/main/uploads/linker.db", gotPath)
}

func TestUpload_MissingLocalFile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, handler)
	err := client.Upload(context.Background(), []string{filepath.Join(t.TempDir(), "absent.db")}, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}
