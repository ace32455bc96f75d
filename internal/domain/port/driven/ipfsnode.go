package driven

import (
	"context"
	"errors"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// ErrTagExists is returned by IPFSNode.Tag when the MFS path is already
// taken and overwrite was not requested.
var ErrTagExists = errors.New("mfs path already exists")

// IPFSNode defines the driven port for the IPFS node used to publish files.
type IPFSNode interface {
	// Add uploads a local file to the node and returns its CID.
	// When pin is set the file is pinned as part of the add.
	Add(ctx context.Context, localPath string, pin bool) (string, error)

	// Pin pins a CID so the node retains it.
	Pin(ctx context.Context, cid string) error

	// Unpin removes a pin from the node.
	Unpin(ctx context.Context, cid string) error

	// Pins lists pinned CIDs of the given type ("all", "recursive",
	// "direct", "indirect").
	Pins(ctx context.Context, pinType string) ([]model.Pin, error)

	// GatewayURL returns the public gateway URL for a CID.
	GatewayURL(cid string) string

	// Download fetches a CID through the public gateway into a local file.
	Download(ctx context.Context, cid, destPath string) error

	// Tag assigns an MFS path to a CID, creating parent directories as
	// needed. Returns ErrTagExists when the path is taken and overwrite
	// is false.
	Tag(ctx context.Context, cid, mfsPath string, overwrite bool) error

	// ReadTag reads the file behind an MFS path into a local file.
	ReadTag(ctx context.Context, mfsPath, destPath string) error

	// Tags lists the MFS entries under a directory with their CIDs.
	Tags(ctx context.Context, mfsDir string) ([]model.TagEntry, error)

	// Version returns the node's version string; used as a liveness probe.
	Version(ctx context.Context) (string, error)
}
