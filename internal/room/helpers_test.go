package room

import (
	"context"
	"testing"

	"github.com/tandembot/tandem/internal/store"
)

// engine bundles the full room engine over a fresh in-memory store.
type engine struct {
	kv        *store.MemoryStore
	repo      *Repository
	contexts  *ContextTracker
	packs     *Packs
	pairing   *Coordinator
	barrier   *Synchronizer
	recorder  *Recorder
	sequencer *Sequencer
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	kv := store.NewMemoryStore()
	repo := NewRepository(kv)
	contexts := NewContextTracker(kv)
	packs := NewPacks(kv)
	return &engine{
		kv:        kv,
		repo:      repo,
		contexts:  contexts,
		packs:     packs,
		pairing:   NewCoordinator(repo, contexts, packs),
		barrier:   NewSynchronizer(repo),
		recorder:  NewRecorder(repo),
		sequencer: NewSequencer(repo, packs, contexts),
	}
}

// seedPack registers a pack and fails the test on error.
func (e *engine) seedPack(t *testing.T, name string, prompts ...string) {
	t.Helper()
	if err := e.packs.Seed(context.Background(), name, prompts); err != nil {
		t.Fatalf("failed to seed pack %s: %v", name, err)
	}
}

// pair creates a session for creator and joins visitor, returning the code.
func (e *engine) pair(t *testing.T, creator, visitor, pack string) string {
	t.Helper()
	ctx := context.Background()
	code, err := e.pairing.Create(ctx, creator, pack)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.pairing.Join(ctx, visitor, code); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	return code
}
