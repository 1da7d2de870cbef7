package room

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Packs reads the registry of named, ordered prompt sequences: a set of
// valid pack names plus one list of prompt texts per pack.
type Packs struct {
	kv kvStore
}

// kvStore is the subset of store.KV the pack registry needs.
type kvStore interface {
	SetContainsMember(ctx context.Context, setKey, member string) (bool, error)
	SetMembers(ctx context.Context, setKey string) ([]string, error)
	SetAddMember(ctx context.Context, setKey, member string) error
	ListIndex(ctx context.Context, listKey string, idx int64) (string, bool, error)
	ListLength(ctx context.Context, listKey string) (int64, error)
	ListPush(ctx context.Context, listKey string, values ...string) error
	Delete(ctx context.Context, keys ...string) error
}

// NewPacks creates a pack registry backed by the given store.
func NewPacks(kv kvStore) *Packs {
	return &Packs{kv: kv}
}

// Exists reports whether a pack with the given name is registered.
func (p *Packs) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := p.kv.SetContainsMember(ctx, packsKey, name)
	if err != nil {
		return false, fmt.Errorf("failed to check pack %s: %w", name, err)
	}
	return ok, nil
}

// Names returns all registered pack names, sorted for stable keyboards.
func (p *Packs) Names(ctx context.Context) ([]string, error) {
	names, err := p.kv.SetMembers(ctx, packsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Question returns the prompt at idx of the named pack. ok is false when the
// index is past the end of the pack.
func (p *Packs) Question(ctx context.Context, name string, idx int) (string, bool, error) {
	text, ok, err := p.kv.ListIndex(ctx, packKey(name), int64(idx))
	if err != nil {
		return "", false, fmt.Errorf("failed to read pack %s at %d: %w", name, idx, err)
	}
	return text, ok, nil
}

// Length returns the number of prompts in the named pack.
func (p *Packs) Length(ctx context.Context, name string) (int, error) {
	n, err := p.kv.ListLength(ctx, packKey(name))
	if err != nil {
		return 0, fmt.Errorf("failed to measure pack %s: %w", name, err)
	}
	return int(n), nil
}

// Seed registers a pack name and replaces its prompt list. Used by the
// seeding flag at startup and by tests.
func (p *Packs) Seed(ctx context.Context, name string, prompts []string) error {
	if name == "" || len(prompts) == 0 {
		return fmt.Errorf("pack seed requires a name and at least one prompt")
	}
	if err := p.kv.Delete(ctx, packKey(name)); err != nil {
		return fmt.Errorf("failed to clear pack %s: %w", name, err)
	}
	if err := p.kv.ListPush(ctx, packKey(name), prompts...); err != nil {
		return fmt.Errorf("failed to store pack %s: %w", name, err)
	}
	if err := p.kv.SetAddMember(ctx, packsKey, name); err != nil {
		return fmt.Errorf("failed to register pack %s: %w", name, err)
	}
	slog.Info("Packs seeded", "pack", name, "prompts", len(prompts))
	return nil
}
