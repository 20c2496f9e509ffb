// Package jobs runs discovery jobs in the background and tracks their state.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// ErrTerminal is returned when a finished job would be modified.
var ErrTerminal = errors.New("job already finished")

// Store holds job records. Records expire at the time given to Expire and are
// reported as types.ErrJobNotFound afterwards.
type Store interface {
	Create(ctx context.Context, job *types.DiscoveryJob) error

	// Update replaces the record. It fails with ErrTerminal once the stored
	// record is completed or failed.
	Update(ctx context.Context, job *types.DiscoveryJob) error

	Get(ctx context.Context, id string) (*types.DiscoveryJob, error)

	// Expire schedules removal of the record at the given time.
	Expire(ctx context.Context, id string, at time.Time) error

	Close() error
}
