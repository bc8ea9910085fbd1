package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/filestore"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

type downStore struct{ *kv.MemoryStore }

func (downStore) Save(context.Context, string, []byte) error {
	return errors.New("storage full")
}

func TestEnsureMaterializesOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemoryStore(nil), nil)
	day := models.DayKey("2024-01-07")

	first, err := svc.Ensure(ctx, day)
	require.NoError(t, err)
	require.Len(t, first, len(models.DailyTasks))
	for _, task := range first {
		assert.False(t, task.Completed)
	}

	_, err = svc.Toggle(ctx, day, "water")
	require.NoError(t, err)

	again, err := svc.Ensure(ctx, day)
	require.NoError(t, err)
	assert.True(t, again[1].Completed)
	assert.Equal(t, "water", again[1].ID)
}

func TestToggleFlipsAndRatio(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemoryStore(nil), nil)
	day := models.DayKey("2024-01-07")

	list, err := svc.Toggle(ctx, day, "feed")
	require.NoError(t, err)
	assert.True(t, list[0].Completed)

	ratio, err := svc.CompletionRatio(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 20, ratio)

	list, err = svc.Toggle(ctx, day, "feed")
	require.NoError(t, err)
	assert.False(t, list[0].Completed)

	// Other days are independent.
	other, err := svc.Ensure(ctx, day.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 0, models.CompletedCount(other))
}

func TestToggleUnknownTaskDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(nil)
	svc := NewService(store, nil)
	day := models.DayKey("2024-01-07")

	_, err := svc.Ensure(ctx, day)
	require.NoError(t, err)
	before, err := store.Load(ctx, kv.TasksKey(day))
	require.NoError(t, err)

	list, err := svc.Toggle(ctx, day, "dance")
	require.NoError(t, err)
	assert.Equal(t, 0, models.CompletedCount(list))

	after, err := store.Load(ctx, kv.TasksKey(day))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoredChecklistIsReturnedVerbatim(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(nil)
	svc := NewServiceWithTemplate(store, []models.TaskTemplate{{ID: "new", Name: "New chore"}}, nil)

	require.NoError(t, store.Save(ctx, "tasks-2024-01-07", []byte(`[{"id":"old","name":"Old chore","description":"","completed":true}]`)))

	list, err := svc.Ensure(ctx, "2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, []models.Task{{ID: "old", Name: "Old chore", Completed: true}}, list)
}

func TestMalformedChecklistIsRebuilt(t *testing.T) {
	for name, stored := range map[string]string{
		"truncated":       `{"broken":`,
		"null":            `null`,
		"empty object":    `[{}]`,
		"task without id": `[{"name":"Feed hens","completed":true}]`,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := kv.NewMemoryStore(nil)
			svc := NewService(store, nil)

			require.NoError(t, store.Save(ctx, "tasks-2024-01-07", []byte(stored)))

			list, err := svc.Ensure(ctx, "2024-01-07")
			require.NoError(t, err)
			require.Len(t, list, len(models.DailyTasks))
			assert.Equal(t, "feed", list[0].ID)
			assert.Equal(t, 0, models.CompletedCount(list))

			// The rebuilt checklist replaces the bad value.
			var persisted []models.Task
			require.NoError(t, kv.LoadJSON(ctx, store, "tasks-2024-01-07", &persisted))
			assert.Equal(t, list, persisted)
		})
	}
}

func TestConcurrentTogglesKeepEveryFlag(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.NewOS(t.TempDir(), nil)
	require.NoError(t, err)
	svc := NewService(kv.NewSession(store, nil), nil)
	day := models.DayKey("2024-01-07")

	var wg sync.WaitGroup
	for _, tmpl := range models.DailyTasks {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Toggle(ctx, day, id)
			assert.NoError(t, err)
		}(tmpl.ID)
	}
	wg.Wait()

	list, err := svc.Ensure(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, len(models.DailyTasks), models.CompletedCount(list))
}

func TestToggleWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewSession(downStore{kv.NewMemoryStore(nil)}, nil), nil)

	list, err := svc.Toggle(ctx, "2024-01-07", "clean")
	assert.True(t, kv.IsWarning(err))
	require.Len(t, list, 5)
	assert.True(t, list[3].Completed)

	list, err = svc.Ensure(ctx, "2024-01-07")
	require.NoError(t, err)
	assert.True(t, list[3].Completed)
}
