package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"myonorm/internal/store"
	"myonorm/internal/testsupport"
)

func sampleRecord(started time.Time) *store.RunRecord {
	stable := 0.25
	return &store.RunRecord{
		Run: store.Run{
			SessionDir:  "/data/P01",
			Participant: "P01",
			Policy:      "automatic",
			Reducer:     "max_window_mean(0.5s)",
			SampleRate:  2000,
			Files:       3,
			StartedAt:   started,
			FinishedAt:  started.Add(2 * time.Second),
		},
		Profiles: []store.ProfileEntry{
			{Channel: 0, Name: "biceps", Value: 1.02, Source: "P01_curl_01_01_2024_rep1.npz", Exercise: "curl", Repetition: 1},
			{Channel: 1, Name: "triceps", Value: 0.51, Source: "P01_press_01_01_2024_rep2.npz", Exercise: "press", Repetition: 2},
		},
		Activations: []store.ActivationEntry{
			{Exercise: "curl", Channel: 0, Repetition: 1, Source: "P01_curl_01_01_2024_rep1.npz", Mean: 0.98, StableSeconds: &stable},
			{Exercise: "curl", Channel: 1, Repetition: 1, Source: "P01_curl_01_01_2024_rep1.npz", Mean: 0.31},
		},
		Failures: []store.FailureEntry{
			{Source: "notes.npz", Channel: -1, Kind: "metadata_parse", Message: "no date"},
		},
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rec := sampleRecord(started)
	id, err := s.RecordRun(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "myonorm.db"), s.Path())

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "P01", run.Participant)
	assert.Equal(t, 3, run.Files)
	assert.Equal(t, 1, run.Failures)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, 2*time.Second, run.Duration())

	profiles, err := s.RunProfiles(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(rec.Profiles, profiles); diff != "" {
		t.Fatalf("profiles mismatch (-want +got):\n%s", diff)
	}

	activations, err := s.RunActivations(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(rec.Activations, activations); diff != "" {
		t.Fatalf("activations mismatch (-want +got):\n%s", diff)
	}

	failures, err := s.RunFailures(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(rec.Failures, failures); diff != "" {
		t.Fatalf("failures mismatch (-want +got):\n%s", diff)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		id, err := s.RecordRun(ctx, sampleRecord(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetRunByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := sampleRecord(time.Now())
	rec.Run.ID = "abcdef12-0000-0000-0000-000000000000"
	_, err := s.RecordRun(ctx, rec)
	require.NoError(t, err)
	other := sampleRecord(time.Now())
	other.Run.ID = "abcdff34-0000-0000-0000-000000000000"
	_, err = s.RecordRun(ctx, other)
	require.NoError(t, err)

	run, err := s.GetRun(ctx, "abcdef")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, rec.Run.ID, run.ID)

	_, err = s.GetRun(ctx, "abcd")
	assert.ErrorContains(t, err, "ambiguous")

	missing, err := s.GetRun(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteRunRemovesChildren(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id, err := s.RecordRun(ctx, sampleRecord(time.Now()))
	require.NoError(t, err)

	deleted, err := s.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	activations, err := s.RunActivations(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, activations)

	deleted, err = s.DeleteRun(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRecordRunWaitsForLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	holder := flock.New(filepath.Join(cfg.Paths.StateDir, "myonorm.lock"))
	ok, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = holder.Unlock() })

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = s.RecordRun(ctx, sampleRecord(time.Now()))
	assert.ErrorIs(t, err, store.ErrLocked)
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = store.Open(cfg)
	assert.ErrorIs(t, err, store.ErrSchemaMismatch)
}
