// Package secrets loads credentials from a local key=value text file.
//
// The file format is one entry per line, split on the first '=' with
// surrounding whitespace trimmed from both key and value. There are no
// sections and no escaping rules; the conventional file name is
// secrets.conf, kept outside version control.
package secrets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Credentials is an immutable key-value mapping parsed from a secrets file.
// Callers must not mutate it after loading.
type Credentials map[string]string

// Pair is a resolved user/password credential pair for a named service.
type Pair struct {
	User     string
	Password string
}

// MissingError reports that a secrets file does not contain the
// <name>-user / <name>-password pair for a service.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing %q credentials: need both %s-user and %s-password keys", e.Name, e.Name, e.Name)
}

// Load reads and parses the secrets file at path. The file handle is
// released on all paths, including parse failure. A nonexistent or
// unreadable path is a hard failure wrapping the underlying os error,
// so errors.Is(err, fs.ErrNotExist) holds for a missing file.
func Load(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open secrets file: %w", err)
	}
	defer f.Close()

	creds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	return creds, nil
}

// Parse reads key=value lines from r. Each line is split on the first '=';
// key and value are trimmed of surrounding whitespace. Empty lines and
// lines without a '=' are skipped silently. Duplicate keys resolve
// last-write-wins. An empty input yields an empty, non-nil mapping.
func Parse(r io.Reader) (Credentials, error) {
	creds := Credentials{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		creds[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}

	return creds, nil
}

// Lookup resolves the user/password pair for a service base name, e.g.
// Lookup("mardi-kg") reads the mardi-kg-user and mardi-kg-password keys.
// Returns a *MissingError when either key is absent.
func (c Credentials) Lookup(name string) (Pair, error) {
	user, okUser := c[name+"-user"]
	password, okPassword := c[name+"-password"]
	if !okUser || !okPassword {
		return Pair{}, &MissingError{Name: name}
	}
	return Pair{User: user, Password: password}, nil
}
