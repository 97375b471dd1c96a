package lims

import (
	"github.com/michaelberinski/genologics/pkg/models"
	"github.com/pkg/errors"
)

// mockLims implements ArtifactFinder with an in-memory artifact map
type mockLims struct {
	artifacts map[string]models.Artifact
}

// NewMockLims returns an in-memory ArtifactFinder seeded with the given
// artifacts, keyed by their LIMS id.
func NewMockLims(artifacts ...models.Artifact) ArtifactFinder {
	m := &mockLims{artifacts: make(map[string]models.Artifact, len(artifacts))}
	for _, a := range artifacts {
		m.artifacts[a.ID] = a
	}
	return m
}

func (m *mockLims) GetArtifact(id string) (models.Artifact, error) {
	a, ok := m.artifacts[id]
	if !ok {
		return models.Artifact{}, errors.Wrapf(ErrNotFound, "artifact %s", id)
	}
	return a, nil
}
