// Package lakefs implements the ObjectStore port against a lakeFS server.
//
// Object operations go through the lakeFS S3 gateway via minio-go; control
// operations (health check, commits) use the lakeFS REST API with basic auth.
package lakefs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ObjectStore = (*Client)(nil)

// restHTTPClient is the HTTP client used for lakeFS REST API requests.
// It enforces a 30-second timeout as a safety net alongside context cancellation.
var restHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Client implements the driven.ObjectStore port for one lakeFS repository
// and branch. The access key pair doubles as REST basic-auth credentials
// and S3 gateway credentials.
type Client struct {
	s3         *minio.Client
	httpClient *http.Client
	apiBase    string // "<endpoint>/api/v1"
	repository string
	branch     string
	accessKey  string
	secretKey  string
}

// NewClient creates a lakeFS client for the given endpoint URL (scheme
// included), repository and branch. The S3 gateway client uses path-style
// bucket addressing, which is what lakeFS serves.
func NewClient(endpoint, repository, branch, accessKey, secretKey string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse lakefs endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("lakefs endpoint %q has no host", endpoint)
	}

	s3, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       u.Scheme == "https",
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 gateway client: %w", err)
	}

	return &Client{
		s3:         s3,
		httpClient: restHTTPClient,
		apiBase:    strings.TrimRight(endpoint, "/") + "/api/v1",
		repository: repository,
		branch:     branch,
		accessKey:  accessKey,
		secretKey:  secretKey,
	}, nil
}

// Upload stores the given local files under subpath. Object keys are
// "<branch>/<subpath>/<filename>"; the filename is the base name of the
// local path.
func (c *Client) Upload(ctx context.Context, localPaths []string, subpath string) error {
	for _, localPath := range localPaths {
		info, err := os.Stat(localPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", localPath, err)
		}

		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", localPath, err)
		}

		key := c.objectKey(subpath, filepath.Base(localPath))
		_, err = c.s3.PutObject(ctx, c.repository, key, f, info.Size(), minio.PutObjectOptions{})
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("upload %s to %s: %w", localPath, key, err)
		}

		slog.Info("uploaded object", "repository", c.repository, "key", key, "size_bytes", info.Size())
	}
	return nil
}

// Exists reports whether an object exists at the given repository path.
func (c *Client) Exists(ctx context.Context, repoPath string) (bool, error) {
	_, err := c.s3.StatObject(ctx, c.repository, c.objectKey("", repoPath), minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", repoPath, err)
	}
	return true, nil
}

// Fetch reads the content of the object at the given repository path.
func (c *Client) Fetch(ctx context.Context, repoPath string) ([]byte, error) {
	obj, err := c.s3.GetObject(ctx, c.repository, c.objectKey("", repoPath), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", repoPath, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", repoPath, err)
	}
	return data, nil
}

// List returns up to limit objects under prefix. Returned paths are
// repository-relative (branch prefix stripped).
func (c *Client) List(ctx context.Context, prefix string, limit int) ([]model.ObjectInfo, error) {
	listPrefix := c.objectKey("", prefix)

	objects := []model.ObjectInfo{}
	for obj := range c.s3.ListObjects(ctx, c.repository, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}

		objects = append(objects, model.ObjectInfo{
			Path:      strings.TrimPrefix(obj.Key, c.branch+"/"),
			SizeBytes: obj.Size,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// SyncToLocal downloads objects under subpath into localDir, preserving
// relative paths. Existing local files are skipped unless overwrite is set.
func (c *Client) SyncToLocal(ctx context.Context, subpath, localDir string, overwrite bool) (int, int, error) {
	prefix := c.objectKey("", subpath)

	var downloaded, skipped int
	for obj := range c.s3.ListObjects(ctx, c.repository, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return downloaded, skipped, fmt.Errorf("list %s: %w", subpath, obj.Err)
		}

		relPath := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
		localPath := filepath.Join(localDir, filepath.FromSlash(relPath))

		if _, err := os.Stat(localPath); err == nil && !overwrite {
			skipped++
			continue
		}

		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return downloaded, skipped, fmt.Errorf("create %s: %w", filepath.Dir(localPath), err)
		}
		if err := c.s3.FGetObject(ctx, c.repository, obj.Key, localPath, minio.GetObjectOptions{}); err != nil {
			return downloaded, skipped, fmt.Errorf("download %s: %w", obj.Key, err)
		}

		downloaded++
		slog.Info("downloaded object", "key", obj.Key, "local_path", localPath)
	}

	slog.Info("sync complete", "subpath", subpath, "downloaded", downloaded, "skipped", skipped)
	return downloaded, skipped, nil
}

// commitRequest is the JSON body for the lakeFS commit endpoint.
type commitRequest struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// commitResponse is the subset of the lakeFS commit response we consume.
type commitResponse struct {
	ID string `json:"id"`
}

// Commit commits staged changes on the branch and returns the commit ID.
// A 400 response reporting no staged changes maps to driven.ErrNoChanges.
func (c *Client) Commit(ctx context.Context, message string, metadata map[string]string) (string, error) {
	commitURL := fmt.Sprintf("%s/repositories/%s/branches/%s/commits",
		c.apiBase, url.PathEscape(c.repository), url.PathEscape(c.branch))

	bodyBytes, err := json.Marshal(commitRequest{Message: message, Metadata: metadata})
	if err != nil {
		return "", fmt.Errorf("marshal commit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, commitURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create commit request: %w", err)
	}
	req.SetBasicAuth(c.accessKey, c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("commit request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read commit response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("no changes")) {
		return "", driven.ErrNoChanges
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("commit request: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded commitResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode commit response: %w", err)
	}
	return decoded.ID, nil
}

// Health checks the lakeFS healthcheck endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("create healthcheck request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("healthcheck request: HTTP %d", resp.StatusCode)
	}
	return nil
}

// objectKey builds the gateway object key "<branch>/<subpath>/<name>" with
// duplicate and surrounding slashes trimmed. name may be empty.
func (c *Client) objectKey(subpath, name string) string {
	return path.Join(c.branch, strings.Trim(subpath, "/"), strings.Trim(name, "/"))
}
