package application

import (
	"context"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// DBPinger is the slice of *sql.DB the health check needs.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// ComponentHealth is the probe result for one dependency.
type ComponentHealth struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// HealthReport aggregates the probe results of all configured dependencies.
type HealthReport struct {
	Healthy    bool              `json:"healthy"`
	Components []ComponentHealth `json:"components"`
}

// HealthService probes the configured dependencies. The lakeFS store and
// the IPFS node are optional; pass nil for components not configured and
// they are left out of the report.
type HealthService struct {
	db    DBPinger
	store driven.ObjectStore
	node  driven.IPFSNode
}

// NewHealthService creates a new HealthService. store and node may be nil.
func NewHealthService(db DBPinger, store driven.ObjectStore, node driven.IPFSNode) *HealthService {
	return &HealthService{db: db, store: store, node: node}
}

// Check probes every configured dependency with a shared deadline and
// reports per-component status. Healthy is true only when all probes pass.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	report := HealthReport{Healthy: true}

	add := func(name string, err error) {
		c := ComponentHealth{Name: name, OK: err == nil}
		if err != nil {
			c.Detail = err.Error()
			report.Healthy = false
		}
		report.Components = append(report.Components, c)
	}

	add("database", s.db.PingContext(ctx))

	if s.store != nil {
		add("lakefs", s.store.Health(ctx))
	}

	if s.node != nil {
		_, err := s.node.Version(ctx)
		add("ipfs", err)
	}

	return report
}
