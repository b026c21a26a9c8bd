package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestStore_CreateTask_Defaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 30, 15, 500, time.Local)

	created, err := st.CreateTask(ctx, "Read", 30, now)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}
	if created.ActualTime != 0 || created.Completed {
		t.Fatalf("unexpected defaults: %+v", created)
	}

	got, err := st.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Read" || got.Duration != 30 || got.ActualTime != 0 || got.Completed {
		t.Fatalf("stored task mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(now.Truncate(time.Second)) {
		t.Fatalf("created_at: expected %v, got %v", now.Truncate(time.Second), got.CreatedAt)
	}
}

func TestStore_CreateTask_AssignsDistinctIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a, err := st.CreateTask(ctx, "a", 10, time.Now())
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	b, err := st.CreateTask(ctx, "b", 20, time.Now())
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both %d", a.ID)
	}
}

func TestStore_GetTask_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetTask(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateTask_OnlyPresentFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	created, err := st.CreateTask(ctx, "Write", 45, time.Now())
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	updated, err := st.UpdateTask(ctx, created.ID, Patch{ActualTime: intPtr(120)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.ActualTime != 120 || updated.Completed {
		t.Fatalf("unexpected after actual_time update: %+v", updated)
	}

	updated, err = st.UpdateTask(ctx, created.ID, Patch{Completed: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.ActualTime != 120 || !updated.Completed {
		t.Fatalf("unexpected after completed update: %+v", updated)
	}

	got, err := st.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.ActualTime != 120 || !got.Completed || got.Title != "Write" || got.Duration != 45 {
		t.Fatalf("stored task mismatch: %+v", got)
	}
}

func TestStore_UpdateTask_EmptyPatchIsNoop(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	created, err := st.CreateTask(ctx, "Idle", 5, time.Now())
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	got, err := st.UpdateTask(ctx, created.ID, Patch{})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.ID != created.ID || got.ActualTime != 0 || got.Completed {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestStore_UpdateTask_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.UpdateTask(context.Background(), 999, Patch{Completed: boolPtr(true)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_All_EmptyIsNonNil(t *testing.T) {
	st := newTestStore(t)
	all, err := st.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}

func TestStore_All_OrderedByID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		if _, err := st.CreateTask(ctx, title, 1, time.Now()); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	all, err := st.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("tasks not ordered by id: %+v", all)
		}
	}
}

func TestStore_Stats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	empty, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}

	a, _ := st.CreateTask(ctx, "a", 10, time.Now())
	b, _ := st.CreateTask(ctx, "b", 10, time.Now())
	if _, err := st.UpdateTask(ctx, a.ID, Patch{ActualTime: intPtr(120), Completed: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if _, err := st.UpdateTask(ctx, b.ID, Patch{ActualTime: intPtr(30)}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{TotalTasks: 2, CompletedTasks: 1, TotalTime: 150}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestTask_MarshalJSON_FormatsCreatedAt(t *testing.T) {
	task := Task{
		ID:        7,
		Title:     "Read",
		Duration:  30,
		CreatedAt: time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC),
	}
	b, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		`"id":7`, `"title":"Read"`, `"duration":30`, `"actual_time":0`,
		`"completed":false`, `"created_at":"2024-03-01 09:05:07"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
