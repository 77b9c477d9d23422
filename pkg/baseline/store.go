package baseline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/sirupsen/logrus"
)

//Store hands out per-player models and trains new ones
type Store interface {
	//Load returns playerID's model or an error wrapping ErrModelNotFound
	Load(ctx context.Context, playerID string) (Model, error)

	//Fit trains a baseline for playerID from normal-motion vectors and persists it, replacing any previous one
	Fit(ctx context.Context, playerID string, vectors []features.Vector) error

	//Features is the input layout new baselines are trained on
	Features() []string
}

//Repository persists fitted baselines
type Repository interface {
	//Get returns an error wrapping ErrModelNotFound when playerID has no baseline
	Get(ctx context.Context, playerID string) (*Baseline, error)
	Put(ctx context.Context, b *Baseline) error
}

//ModelStore implements Store on top of a Repository. Loaded baselines are immutable, so they are cached
//and shared by concurrent readers; Fit replaces the cached entry.
type ModelStore struct {
	repo    Repository
	trainer *Trainer
	log     *logrus.Entry

	mu    sync.RWMutex
	cache map[string]*Baseline
}

//NewModelStore returns a store reading and writing through repo
func NewModelStore(repo Repository, trainer *Trainer, log *logrus.Entry) *ModelStore {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ModelStore{
		repo:    repo,
		trainer: trainer,
		log:     log.WithField("component", "model_store"),
		cache:   make(map[string]*Baseline),
	}
}

func normalizeID(playerID string) string {
	return strings.TrimSpace(playerID)
}

func (s *ModelStore) Load(ctx context.Context, playerID string) (Model, error) {
	id := normalizeID(playerID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty player id", ErrModelNotFound)
	}

	s.mu.RLock()
	b, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return b, nil
	}

	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cached, ok := s.cache[id]; ok { //lost a race with Fit or another loader, keep the existing one
		b = cached
	} else {
		s.cache[id] = b
	}
	s.mu.Unlock()

	return b, nil
}

func (s *ModelStore) Fit(ctx context.Context, playerID string, vectors []features.Vector) error {
	id := normalizeID(playerID)
	if id == "" {
		return errors.New("baseline: empty player id")
	}

	b, err := s.trainer.Train(id, vectors)
	if err != nil {
		return err
	}

	if err := s.repo.Put(ctx, b); err != nil {
		return fmt.Errorf("baseline: persisting '%s': %w", id, err)
	}

	s.mu.Lock()
	s.cache[id] = b
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"player_id": id, "samples": b.Samples, "features": b.FeatureNames}).Info("baseline trained")
	return nil
}

func (s *ModelStore) Features() []string {
	return s.trainer.Features()
}

//Forget drops playerID from the cache, next Load reads the repository again
func (s *ModelStore) Forget(playerID string) {
	s.mu.Lock()
	delete(s.cache, normalizeID(playerID))
	s.mu.Unlock()
}

//MemoryRepository keeps baselines in process memory, used in tests and single-node development
type MemoryRepository struct {
	mu        sync.RWMutex
	baselines map[string]*Baseline
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{baselines: make(map[string]*Baseline)}
}

func (r *MemoryRepository) Get(_ context.Context, playerID string) (*Baseline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.baselines[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player '%s'", ErrModelNotFound, playerID)
	}
	return b, nil
}

func (r *MemoryRepository) Put(_ context.Context, b *Baseline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.baselines[b.Player] = b
	return nil
}
