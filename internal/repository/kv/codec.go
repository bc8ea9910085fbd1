package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// LoadJSON decodes the value under key into v. It returns ErrNotFound for a missing
// key and an error matching ErrMalformed when the value does not decode.
func LoadJSON(ctx context.Context, store Store, key string, v any) error {
	raw, err := store.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, store Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Save(ctx, key, raw)
}

// LoadJSONList decodes a JSON array stored under key element by element. Elements that
// fail to decode are skipped and counted. A value that is not an array at all is
// reported as ErrMalformed.
func LoadJSONList[T any](ctx context.Context, store Store, key string) ([]T, int, error) {
	raw, err := LoadRawList(ctx, store, key)
	if err != nil {
		return nil, 0, err
	}

	out := make([]T, 0, len(raw))
	var skipped int
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped, nil
}

// LoadRawList returns the elements of the JSON array stored under key without decoding
// them, so a rewrite can carry every element forward byte for byte, including elements
// LoadJSONList would skip.
func LoadRawList(ctx context.Context, store Store, key string) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := LoadJSON(ctx, store, key, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
