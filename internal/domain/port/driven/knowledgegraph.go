package driven

import (
	"context"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// KnowledgeGraph defines the driven port for publication lookups against
// the MaRDI knowledge graph.
type KnowledgeGraph interface {
	// SearchByArxivID returns publication entries mentioning the given
	// arXiv identifier (e.g. "2104.06175").
	SearchByArxivID(ctx context.Context, arxivID string) ([]model.PublicationMatch, error)

	// SearchByDOI returns publication entries mentioning the given DOI
	// (e.g. "10.1007/s40305-018-0210-x").
	SearchByDOI(ctx context.Context, doi string) ([]model.PublicationMatch, error)
}
