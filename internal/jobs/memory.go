package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

type entry struct {
	job      types.DiscoveryJob
	expireAt time.Time
}

// MemoryStore keeps jobs in process memory. Expired records are dropped
// lazily on Get and by a janitor goroutine sweeping every interval.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*entry
	now  func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore creates a store and starts its janitor. A non-positive
// interval disables the janitor.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		jobs: make(map[string]*entry),
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.janitor(sweepInterval)
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Sweep removes every expired record and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.jobs {
		if expired(e, now) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

func expired(e *entry, now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Len returns the number of stored records, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *MemoryStore) Create(_ context.Context, job *types.DiscoveryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = &entry{job: *job}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, job *types.DiscoveryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[job.ID]
	if !ok || expired(e, s.now()) {
		return types.ErrJobNotFound
	}
	if e.job.Status.Terminal() {
		return ErrTerminal
	}
	e.job = *job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*types.DiscoveryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return nil, types.ErrJobNotFound
	}
	if expired(e, s.now()) {
		delete(s.jobs, id)
		return nil, types.ErrJobNotFound
	}
	job := e.job
	return &job, nil
}

func (s *MemoryStore) Expire(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return types.ErrJobNotFound
	}
	e.expireAt = at
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return nil
}
