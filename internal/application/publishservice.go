package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// PublishResult describes a file published to IPFS.
type PublishResult struct {
	CID        string
	GatewayURL string
	// TagPath is the MFS path the CID was tagged under, if any.
	TagPath string
}

// PublishService publishes local files to the IPFS node: add, pin, and
// optionally tag the resulting CID under a stable MFS path.
type PublishService struct {
	node driven.IPFSNode
}

// NewPublishService creates a new PublishService with the required dependencies.
func NewPublishService(node driven.IPFSNode) *PublishService {
	return &PublishService{node: node}
}

// Publish adds a local file to the node. When pin is set the CID is pinned;
// when tagPath is non-empty the CID is also copied there in MFS, replacing
// any existing entry.
func (s *PublishService) Publish(ctx context.Context, localPath string, pin bool, tagPath string) (*PublishResult, error) {
	cid, err := s.node.Add(ctx, localPath, pin)
	if err != nil {
		return nil, fmt.Errorf("add to ipfs: %w", err)
	}

	result := &PublishResult{
		CID:        cid,
		GatewayURL: s.node.GatewayURL(cid),
	}

	if tagPath != "" {
		if err := s.node.Tag(ctx, cid, tagPath, true); err != nil {
			return nil, fmt.Errorf("tag %s as %s: %w", cid, tagPath, err)
		}
		result.TagPath = tagPath
	}

	slog.Info("published file to ipfs", "path", localPath, "cid", cid, "pinned", pin, "tag", tagPath)
	return result, nil
}

// Pins lists the node's pinned CIDs of the given type.
func (s *PublishService) Pins(ctx context.Context, pinType string) ([]model.Pin, error) {
	if pinType == "" {
		pinType = "recursive"
	}
	return s.node.Pins(ctx, pinType)
}

// Tags lists the MFS entries under a directory.
func (s *PublishService) Tags(ctx context.Context, mfsDir string) ([]model.TagEntry, error) {
	return s.node.Tags(ctx, mfsDir)
}
