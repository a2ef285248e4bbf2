package featurestore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"slakhprep/internal/featurestore"
)

func openStore(t *testing.T) *featurestore.Store {
	t.Helper()
	store, err := featurestore.Open(filepath.Join(t.TempDir(), "out", "features.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func patch(track, stem, group string, program *int, offset int) featurestore.Patch {
	return featurestore.Patch{
		Split:     "train",
		Track:     track,
		Stem:      stem,
		Program:   program,
		InstClass: "Guitar",
		Group:     group,
		Offset:    offset,
		NMels:     2,
		Frames:    3,
		Data:      []float32{-80, -40.5, 0, -1.25, -3, -79.75},
	}
}

func intPtr(v int) *int { return &v }

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "train")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if run.ID == "" || run.Status != featurestore.StatusRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	n, err := store.InsertPatches(ctx, run.ID, []featurestore.Patch{
		patch("Track00001", "S00", "Guitar", intPtr(25), 0),
		patch("Track00001", "S01", "Drums", nil, 128),
	})
	if err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 patches written, got %d", n)
	}
	if err := store.FinishRun(ctx, run.ID, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != featurestore.StatusCompleted || got.PatchCount != 2 {
		t.Fatalf("unexpected run after finish: %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be recorded")
	}
}

func TestEachPatchRoundTripsData(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "train")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	want := []featurestore.Patch{
		patch("Track00001", "S00", "Guitar", intPtr(25), 0),
		patch("Track00002", "S03", "Drums", nil, 256),
	}
	want[1].IsDrum = true
	if _, err := store.InsertPatches(ctx, run.ID, want); err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	if err := store.FinishRun(ctx, run.ID, nil); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	var got []featurestore.Patch
	if err := store.EachPatch(ctx, "train", func(p featurestore.Patch) error {
		got = append(got, p)
		return nil
	}); err != nil {
		t.Fatalf("EachPatch failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d patches, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Track != want[i].Track || got[i].Stem != want[i].Stem || got[i].Offset != want[i].Offset {
			t.Fatalf("patch %d identity mismatch: %+v", i, got[i])
		}
		if got[i].IsDrum != want[i].IsDrum {
			t.Fatalf("patch %d drum flag mismatch", i)
		}
		for j := range want[i].Data {
			if got[i].Data[j] != want[i].Data[j] {
				t.Fatalf("patch %d value %d: expected %v, got %v", i, j, want[i].Data[j], got[i].Data[j])
			}
		}
	}
	if got[0].Program == nil || *got[0].Program != 25 {
		t.Fatalf("expected program 25, got %v", got[0].Program)
	}
	if got[1].Program != nil {
		t.Fatalf("expected nil program, got %d", *got[1].Program)
	}
}

func TestEachPatchStopsOnCallbackError(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, _ := store.BeginRun(ctx, "train")
	if _, err := store.InsertPatches(ctx, run.ID, []featurestore.Patch{
		patch("Track00001", "S00", "Guitar", nil, 0),
		patch("Track00001", "S00", "Guitar", nil, 128),
	}); err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	_ = store.FinishRun(ctx, run.ID, nil)

	stop := errors.New("stop")
	calls := 0
	err := store.EachPatch(ctx, "train", func(featurestore.Patch) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected iteration to stop after 1 call, got %d", calls)
	}
}

func TestGroupCountsUseLatestCompletedRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, _ := store.BeginRun(ctx, "train")
	if _, err := store.InsertPatches(ctx, first.ID, []featurestore.Patch{
		patch("Track00001", "S00", "Guitar", nil, 0),
	}); err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	_ = store.FinishRun(ctx, first.ID, nil)

	second, _ := store.BeginRun(ctx, "train")
	if _, err := store.InsertPatches(ctx, second.ID, []featurestore.Patch{
		patch("Track00001", "S00", "Guitar", nil, 0),
		patch("Track00001", "S01", "Bass", nil, 0),
		patch("Track00001", "S01", "Bass", nil, 128),
	}); err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	_ = store.FinishRun(ctx, second.ID, nil)

	failed, _ := store.BeginRun(ctx, "train")
	if _, err := store.InsertPatches(ctx, failed.ID, []featurestore.Patch{
		patch("Track00001", "S02", "Organ", nil, 0),
	}); err != nil {
		t.Fatalf("InsertPatches failed: %v", err)
	}
	_ = store.FinishRun(ctx, failed.ID, errors.New("boom"))

	counts, err := store.GroupCounts(ctx, "train")
	if err != nil {
		t.Fatalf("GroupCounts failed: %v", err)
	}
	want := []featurestore.GroupCount{{Group: "Bass", Count: 2}, {Group: "Guitar", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("expected %v, got %v", want, counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, counts)
		}
	}

	removed, err := store.PruneRuns(ctx, "train")
	if err != nil {
		t.Fatalf("PruneRuns failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 runs pruned, got %d", removed)
	}
	if _, err := store.GetRun(ctx, second.ID); err != nil {
		t.Fatalf("latest run should survive pruning: %v", err)
	}
}

func TestGroupCountsEmptySplit(t *testing.T) {
	store := openStore(t)
	counts, err := store.GroupCounts(context.Background(), "test")
	if err != nil {
		t.Fatalf("GroupCounts failed: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected no counts, got %v", counts)
	}
}

func TestInsertPatchesRejectsShapeMismatch(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run, _ := store.BeginRun(ctx, "train")

	bad := patch("Track00001", "S00", "Guitar", nil, 0)
	bad.Frames = 4
	if _, err := store.InsertPatches(ctx, run.ID, []featurestore.Patch{bad}); err == nil {
		t.Fatal("expected shape mismatch error")
	}
	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.PatchCount != 0 {
		t.Fatalf("expected rollback to leave patch count at 0, got %d", got.PatchCount)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")
	store, err := featurestore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := featurestore.Open(path); !errors.Is(err, featurestore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
