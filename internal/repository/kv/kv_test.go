package kv

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

// flakyStore fails every Save while down is set.
type flakyStore struct {
	*MemoryStore
	mu   sync.Mutex
	down bool
}

func (f *flakyStore) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *flakyStore) Save(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Save(ctx, key, value)
}

func TestKeys(t *testing.T) {
	day := models.DayKey("2024-01-07")

	assert.Equal(t, "eggs-2024-01-07", EggsKey(day))
	assert.Equal(t, "tasks-2024-01-07", TasksKey(day))
	assert.Equal(t, "sunday-reminder-2024-01-07", ReminderKey(day))

	for _, key := range []string{EggsKey(day), TasksKey(day), ReminderKey(day), ExpensesKey, ChickensKey} {
		assert.NoError(t, ValidateKey(key), key)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"simple", "eggs-2024-01-07", true},
		{"dots and underscores", "a_b.c", true},
		{"empty", "", false},
		{"leading dot", ".hidden", false},
		{"path separator", "../etc/passwd", false},
		{"uppercase", "Eggs", false},
		{"space", "coop expenses", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	_, err := store.Load(ctx, "eggs-2024-01-07")
	require.ErrorIs(t, err, ErrNotFound)

	value := []byte("3")
	require.NoError(t, store.Save(ctx, "eggs-2024-01-07", value))
	value[0] = '9'

	got, err := store.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)

	got[0] = '7'
	again, err := store.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), again)

	require.NoError(t, store.Save(ctx, "eggs-2024-01-07", []byte("4")))
	assert.Equal(t, 1, store.Len())

	assert.ErrorIs(t, store.Save(ctx, "Bad Key", []byte("1")), ErrInvalidKey)
}

func TestSessionWritesThrough(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore(nil)
	session := NewSession(backend, nil)

	require.NoError(t, session.Save(ctx, "eggs-2024-01-07", []byte("2")))

	raw, err := backend.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), raw)
	assert.Empty(t, session.Pending())
}

func TestSessionKeepsFailedWrites(t *testing.T) {
	ctx := context.Background()
	backend := &flakyStore{MemoryStore: NewMemoryStore(nil)}
	session := NewSession(backend, nil)

	require.NoError(t, session.Save(ctx, "eggs-2024-01-07", []byte("1")))

	backend.setDown(true)
	err := session.Save(ctx, "eggs-2024-01-07", []byte("2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDurable)
	assert.True(t, IsWarning(err))

	var perr *PersistError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "eggs-2024-01-07", perr.Key)

	// The session serves the newer value; the backend still holds the old one.
	got, err := session.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)

	raw, err := backend.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), raw)
	assert.Equal(t, []string{"eggs-2024-01-07"}, session.Pending())

	backend.setDown(false)
	require.NoError(t, session.Save(ctx, "eggs-2024-01-07", []byte("3")))
	assert.Empty(t, session.Pending())

	raw, err = backend.Load(ctx, "eggs-2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), raw)
}

func TestSessionRejectsInvalidKey(t *testing.T) {
	session := NewSession(NewMemoryStore(nil), nil)

	err := session.Save(context.Background(), "../escape", []byte("1"))
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, IsWarning(err))
}

func TestIsWarning(t *testing.T) {
	assert.False(t, IsWarning(nil))
	assert.False(t, IsWarning(errors.New("boom")))
	assert.True(t, IsWarning(&PersistError{Key: "k", Err: errors.New("boom")}))
}

func TestLoadJSON(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	var out []string
	require.ErrorIs(t, LoadJSON(ctx, store, "coop-chickens", &out), ErrNotFound)

	require.NoError(t, SaveJSON(ctx, store, "coop-chickens", []string{"Henrietta"}))
	require.NoError(t, LoadJSON(ctx, store, "coop-chickens", &out))
	assert.Equal(t, []string{"Henrietta"}, out)

	require.NoError(t, store.Save(ctx, "coop-chickens", []byte("{not json")))
	assert.ErrorIs(t, LoadJSON(ctx, store, "coop-chickens", &out), ErrMalformed)
}

type named struct {
	Name string `json:"name"`
}

func TestLoadJSONListSkipsBadElements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.Save(ctx, "coop-chickens", []byte(`[{"name":"Henrietta"},42,{"name":"Clucky"}]`)))

	items, skipped, err := LoadJSONList[named](ctx, store, "coop-chickens")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []named{{Name: "Henrietta"}, {Name: "Clucky"}}, items)

	require.NoError(t, store.Save(ctx, "coop-chickens", []byte(`{"name":"not a list"}`)))
	_, _, err = LoadJSONList[named](ctx, store, "coop-chickens")
	assert.ErrorIs(t, err, ErrMalformed)
}
