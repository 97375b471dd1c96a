package storage_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	internal_storage "github.com/michaelberinski/genologics/internal/storage"
	"github.com/michaelberinski/genologics/internal/testutil"
	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/michaelberinski/genologics/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store
	newTxStore := func(t *testing.T) *internal_storage.PostgresStore {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { txStore.Rollback() })
		return txStore.(*internal_storage.PostgresStore)
	}

	newRun := func() models.RunRecord {
		return models.RunRecord{
			ID:        uuid.NewString(),
			Script:    "qc_report --sample A1",
			LogFile:   "24-1234",
			Status:    models.StartedRunStatus,
			StartedAt: time.Now(),
		}
	}

	t.Run("SaveRun", func(t *testing.T) {
		store := newTxStore(t)
		run := newRun()
		assert.NoError(t, store.SaveRun(run))

		saved, err := store.GetRun(run.ID)
		assert.NoError(t, err)
		assert.Equal(t, run.Script, saved.Script)
		assert.Equal(t, run.LogFile, saved.LogFile)
		assert.Equal(t, models.StartedRunStatus, saved.Status)
		assert.Nil(t, saved.FinishedAt)
	})

	t.Run("GetNonExistingRun", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.GetRun(uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		store := newTxStore(t)
		run := newRun()
		assert.NoError(t, store.SaveRun(run))

		assert.NoError(t, store.UpdateRunStatus(run.ID, models.CompletedRunStatus, ""))
		updated, err := store.GetRun(run.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.CompletedRunStatus, updated.Status)
		assert.NotNil(t, updated.FinishedAt)
	})

	t.Run("UpdateNonExistingRun", func(t *testing.T) {
		store := newTxStore(t)
		err := store.UpdateRunStatus(uuid.NewString(), models.FailedRunStatus, "boom")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListRuns", func(t *testing.T) {
		store := newTxStore(t)
		first := newRun()
		second := newRun()
		second.StartedAt = first.StartedAt.Add(time.Minute)
		assert.NoError(t, store.SaveRun(first))
		assert.NoError(t, store.SaveRun(second))

		runs, err := store.ListRuns()
		assert.NoError(t, err)
		assert.Len(t, runs, 2)
		assert.Equal(t, second.ID, runs[0].ID)
	})
}
