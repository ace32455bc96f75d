// Package ipfs implements the IPFSNode port against the IPFS HTTP API
// (/api/v0) with basic-auth credentials, plus a public gateway for reads.
package ipfs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IPFSNode = (*Client)(nil)

// Client implements the driven.IPFSNode port. All node API calls are POSTs
// against <api>/api/v0 with basic auth; downloads go through the gateway.
type Client struct {
	httpClient  *http.Client
	apiBase     string // "<api host>/api/v0"
	gatewayBase string
	user        string
	password    string
}

// NewClient creates an IPFS client for the given admin API URL and public
// gateway URL.
func NewClient(apiURL, gatewayURL, user, password string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		apiBase:     strings.TrimRight(apiURL, "/") + "/api/v0",
		gatewayBase: strings.TrimRight(gatewayURL, "/"),
		user:        user,
		password:    password,
	}
}

// post issues an authenticated POST to an /api/v0 endpoint. The caller owns
// the response body.
func (c *Client) post(ctx context.Context, endpoint string, params url.Values, body io.Reader, contentType string) (*http.Response, error) {
	requestURL := c.apiBase + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.user, c.password)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	return resp, nil
}

// drainError consumes the response body and formats an HTTP error including
// the node's error message when present.
func drainError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	msg := strings.TrimSpace(string(body))
	if msg != "" {
		return fmt.Errorf("%s request: HTTP %d: %s", endpoint, resp.StatusCode, msg)
	}
	return fmt.Errorf("%s request: HTTP %d", endpoint, resp.StatusCode)
}

// Add uploads a local file to the node and returns its CID. Files are added
// with CIDv1; pin controls whether the add also pins the content. The /add
// endpoint may return one JSON object per line for wrapped content, so only
// the first line is decoded.
func (c *Client) Add(ctx context.Context, localPath string, pin bool) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	params := url.Values{
		"cid-version": {"1"},
		"pin":         {strconv.FormatBool(pin)},
	}

	resp, err := c.post(ctx, "/add", params, &buf, writer.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", drainError("/add", resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return "", fmt.Errorf("/add response: empty body")
	}

	var added struct {
		Hash string `json:"Hash"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &added); err != nil {
		return "", fmt.Errorf("decode /add response: %w", err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("/add response: missing hash")
	}

	slog.Info("added file to ipfs", "local_path", localPath, "cid", added.Hash, "pinned", pin)
	return added.Hash, nil
}

// Pin pins a CID so the node retains it.
func (c *Client) Pin(ctx context.Context, cid string) error {
	return c.simplePost(ctx, "/pin/add", url.Values{"arg": {cid}})
}

// Unpin removes a pin from the node.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	return c.simplePost(ctx, "/pin/rm", url.Values{"arg": {cid}})
}

// Pins lists pinned CIDs of the given type, sorted by CID for deterministic
// output (the node reports them as an unordered map).
func (c *Client) Pins(ctx context.Context, pinType string) ([]model.Pin, error) {
	resp, err := c.post(ctx, "/pin/ls", url.Values{"type": {pinType}}, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, drainError("/pin/ls", resp)
	}

	var decoded struct {
		Keys map[string]struct {
			Type string `json:"Type"`
		} `json:"Keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode /pin/ls response: %w", err)
	}

	pins := make([]model.Pin, 0, len(decoded.Keys))
	for cid, info := range decoded.Keys {
		pins = append(pins, model.Pin{CID: cid, Type: info.Type})
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].CID < pins[j].CID })

	return pins, nil
}

// GatewayURL returns the public gateway URL for a CID.
func (c *Client) GatewayURL(cid string) string {
	return c.gatewayBase + "/ipfs/" + cid
}

// Download fetches a CID through the public gateway into a local file.
// Gateway reads are unauthenticated.
func (c *Client) Download(ctx context.Context, cid, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayURL(cid), nil)
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request for %s: %w", cid, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return drainError("gateway", resp)
	}

	return writeToFile(resp.Body, destPath)
}

// Tag assigns an MFS path to a CID by copying /ipfs/<cid> to the path,
// creating parent directories as needed. With overwrite, any existing entry
// at the path is removed first.
func (c *Client) Tag(ctx context.Context, cid, mfsPath string, overwrite bool) error {
	if parent := path.Dir(mfsPath); parent != "/" && parent != "." {
		if err := c.ensureDir(ctx, parent); err != nil {
			return err
		}
	}
	if overwrite {
		if err := c.removePath(ctx, mfsPath); err != nil {
			return err
		}
	}

	params := url.Values{"arg": {"/ipfs/" + cid, mfsPath}}
	resp, err := c.post(ctx, "/files/cp", params, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if strings.Contains(strings.ToLower(string(body)), "already exists") {
			return fmt.Errorf("tag %s as %s: %w", cid, mfsPath, driven.ErrTagExists)
		}
		return fmt.Errorf("/files/cp request: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return drainError("/files/cp", resp)
	}

	slog.Info("tagged cid", "cid", cid, "mfs_path", mfsPath)
	return nil
}

// ReadTag reads the file behind an MFS path into a local file.
func (c *Client) ReadTag(ctx context.Context, mfsPath, destPath string) error {
	resp, err := c.post(ctx, "/files/read", url.Values{"arg": {mfsPath}}, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return drainError("/files/read", resp)
	}

	return writeToFile(resp.Body, destPath)
}

// Tags lists the MFS entries under a directory. Each entry is stat'ed for
// its CID, size and modification time.
func (c *Client) Tags(ctx context.Context, mfsDir string) ([]model.TagEntry, error) {
	resp, err := c.post(ctx, "/files/ls", url.Values{"arg": {mfsDir}, "long": {"true"}}, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, drainError("/files/ls", resp)
	}

	var listing struct {
		Entries []struct {
			Name string `json:"Name"`
		} `json:"Entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode /files/ls response: %w", err)
	}

	entries := make([]model.TagEntry, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		fullPath := strings.TrimRight(mfsDir, "/") + "/" + entry.Name

		stat, err := c.statPath(ctx, fullPath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, stat)
	}

	return entries, nil
}

// Version returns the node's version string; used as a liveness probe.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/version", nil, nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", drainError("/version", resp)
	}

	var decoded struct {
		Version string `json:"Version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode /version response: %w", err)
	}
	return decoded.Version, nil
}

// ensureDir creates an MFS directory (and parents) if it does not exist.
func (c *Client) ensureDir(ctx context.Context, mfsDir string) error {
	return c.simplePost(ctx, "/files/mkdir", url.Values{"arg": {mfsDir}, "parents": {"true"}})
}

// removePath force-removes an MFS path. A "does not exist" error from the
// node is not a failure.
func (c *Client) removePath(ctx context.Context, mfsPath string) error {
	resp, err := c.post(ctx, "/files/rm", url.Values{"arg": {mfsPath}, "force": {"true"}}, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if strings.Contains(string(body), "does not exist") {
		return nil
	}
	return fmt.Errorf("/files/rm request: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// statPath stats an MFS path and maps it to a TagEntry.
func (c *Client) statPath(ctx context.Context, mfsPath string) (model.TagEntry, error) {
	resp, err := c.post(ctx, "/files/stat", url.Values{"arg": {mfsPath}}, nil, "")
	if err != nil {
		return model.TagEntry{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.TagEntry{}, drainError("/files/stat", resp)
	}

	var stat struct {
		Hash  string `json:"Hash"`
		Size  int64  `json:"Size"`
		Mtime int64  `json:"Mtime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stat); err != nil {
		return model.TagEntry{}, fmt.Errorf("decode /files/stat response: %w", err)
	}

	entry := model.TagEntry{
		Path:      mfsPath,
		CID:       stat.Hash,
		SizeBytes: stat.Size,
	}
	if stat.Mtime > 0 {
		entry.ModTime = time.Unix(stat.Mtime, 0).UTC()
	}
	return entry, nil
}

// simplePost issues a POST where only the status code matters.
func (c *Client) simplePost(ctx context.Context, endpoint string, params url.Values) error {
	resp, err := c.post(ctx, endpoint, params, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return drainError(endpoint, resp)
	}
	return nil
}

// writeToFile streams r into a new file at destPath.
func writeToFile(r io.Reader, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destPath, err)
	}
	return nil
}
