package storage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/michaelberinski/genologics/pkg/models"
)

// mockStore implements Store with in-memory storage
type mockStore struct {
	runs      []models.RunRecord
	committed bool // Transaction state
}

// NewMockStore returns an in-memory Store for tests and offline use.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	m.committed = true
	return nil
}

func (m *mockStore) Rollback() error {
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveRun(r models.RunRecord) error {
	if m.committed {
		return errors.New("transaction already committed")
	}
	m.runs = append(m.runs, r)
	return nil
}

func (m *mockStore) GetRun(id string) (models.RunRecord, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.RunRecord{}, ErrNotFound
}

func (m *mockStore) UpdateRunStatus(id string, status models.RunStatus, errorMsg string) error {
	if m.committed {
		return errors.New("transaction already committed")
	}
	for i, r := range m.runs {
		if r.ID == id {
			m.runs[i].Status = status
			m.runs[i].ErrorMsg = errorMsg
			if status == models.CompletedRunStatus || status == models.FailedRunStatus {
				now := time.Now()
				m.runs[i].FinishedAt = &now
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) ListRuns() ([]models.RunRecord, error) {
	runs := make([]models.RunRecord, len(m.runs))
	copy(runs, m.runs)
	return runs, nil
}
