// Package store provides key-value storage backends for Tandem.
//
// The session engine is written against the KV interface; RedisStore is the
// production backend and MemoryStore serves tests and local development.
package store

import "context"

// KV is the shared key-value store the session engine runs against. It
// mirrors the operation set of a Redis-style store: scalar strings, hashes,
// sets, and ordered lists, all addressed by string keys.
//
// Individual operations are atomic by the backend's contract; sequences of
// operations are not. The engine tolerates this because each hash field is
// owned by exactly one writer at a time.
type KV interface {
	// GetString returns the scalar value at key. ok is false when absent.
	GetString(ctx context.Context, key string) (value string, ok bool, err error)
	// SetString writes the scalar value at key.
	SetString(ctx context.Context, key, value string) error

	// HashGet returns the named fields of the hash at key, one entry per
	// requested field, nil for fields that are absent.
	HashGet(ctx context.Context, key string, fields ...string) ([]*string, error)
	// HashGetAll returns every field of the hash at key. An absent key
	// yields an empty map.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	// HashSet writes a single hash field.
	HashSet(ctx context.Context, key, field, value string) error
	// HashSetMultiple writes several hash fields in one call.
	HashSetMultiple(ctx context.Context, key string, pairs map[string]string) error
	// HashDeleteFields removes the named fields from the hash at key.
	HashDeleteFields(ctx context.Context, key string, fields ...string) error
	// HashIncrement atomically adds by to an integer hash field and returns
	// the new value. A missing field counts as zero.
	HashIncrement(ctx context.Context, key, field string, by int64) (int64, error)
	// HashExists reports whether the hash at key has the named field.
	HashExists(ctx context.Context, key, field string) (bool, error)

	// Exists reports whether any value is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// SetContainsMember reports whether member is in the set at setKey.
	SetContainsMember(ctx context.Context, setKey, member string) (bool, error)
	// SetMembers returns all members of the set at setKey.
	SetMembers(ctx context.Context, setKey string) ([]string, error)
	// SetAddMember adds member to the set at setKey.
	SetAddMember(ctx context.Context, setKey, member string) error

	// ListIndex returns the element at idx of the list at listKey.
	// ok is false when the list is shorter or absent.
	ListIndex(ctx context.Context, listKey string, idx int64) (value string, ok bool, err error)
	// ListLength returns the length of the list at listKey (0 when absent).
	ListLength(ctx context.Context, listKey string) (int64, error)
	// ListPush appends values to the list at listKey.
	ListPush(ctx context.Context, listKey string, values ...string) error

	// Delete removes the given keys, of any type.
	Delete(ctx context.Context, keys ...string) error
}
