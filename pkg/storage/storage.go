package storage

import (
	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a run record does not exist.
var ErrNotFound = errors.New("run not found")

// Store defines the run registry operations.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	SaveRun(r models.RunRecord) error
	GetRun(id string) (models.RunRecord, error)
	UpdateRunStatus(id string, status models.RunStatus, errorMsg string) error
	ListRuns() ([]models.RunRecord, error)
}
