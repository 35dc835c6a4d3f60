package discovery

//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/LeonardoBeccarini/plant_monitor/internal/services/discovery DataSource,Notifier,Ticker

import (
	"context"
	"time"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

// DataSource is where plant snapshots come from.
type DataSource interface {
	// ListPlantIDs returns every plant id the source knows about.
	ListPlantIDs(ctx context.Context) ([]string, error)
	// LatestSnapshot returns the latest readings and room of plantID, or nil
	// without error when the source holds no data for it.
	LatestSnapshot(ctx context.Context, plantID string) (*entities.Snapshot, error)
}

// Notifier receives the outcome of every committed or unchanged pass.
type Notifier interface {
	Notify(ctx context.Context, n messages.DiscoveryNotification) error
}

// Ticker defines an interface for the ticker used by the Scheduler.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}
