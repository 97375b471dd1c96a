package lims

import (
	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the LIMS has no artifact for an id.
var ErrNotFound = errors.New("artifact not found")

// ArtifactFinder looks up artifacts by LIMS id. Implementations wrap
// whatever transport the deployment uses; callers only see ErrNotFound
// for missing artifacts, every other error passes through unchanged.
type ArtifactFinder interface {
	GetArtifact(id string) (models.Artifact, error)
}
