package models

// Artifact represents a LIMS artifact: an input or output of a process
// step, carrying zero or more result files.
type Artifact struct {
	ID    string         `json:"id"`              // LIMS identifier (e.g., "92-12345")
	Name  string         `json:"name,omitempty"`  // Display name in the LIMS
	Files []ArtifactFile `json:"files,omitempty"` // Result files attached to the artifact
}

// LimsID returns the artifact's LIMS identifier.
func (a Artifact) LimsID() string {
	return a.ID
}

// ArtifactFile is a result file stored by the LIMS file service.
type ArtifactFile struct {
	ID              string `json:"id"`                          // File resource identifier (e.g., "40-567")
	ContentLocation string `json:"content_location"`            // Remote location, prefixed with the LIMS authority
	OriginalName    string `json:"original_location,omitempty"` // Name the file was uploaded under
}
