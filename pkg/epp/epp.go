// Package epp holds reusable helpers for EPP scripts: small programs the
// LIMS runs around a process step. Scripts attach result files, validate
// query results and redirect their output into a run log the LIMS can
// collect afterwards.
package epp

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Resource is anything carrying a LIMS identifier, typically an artifact
// or process resource handed to the script.
type Resource interface {
	LimsID() string
}

// AttachFile copies the file at src into the current working directory
// under the name "{id}_{basename}". The EPP node uploads files left in
// the working directory when the process output is set up accordingly.
// Returns the path of the copy.
func AttachFile(src string, resource Resource) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolve working directory")
	}
	location := filepath.Join(dir, resource.LimsID()+"_"+filepath.Base(src))
	if err := copyFile(src, location); err != nil {
		return "", err
	}
	return location, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return out.Close()
}

// EmptyError reports a query that was expected to yield one item but
// yielded none.
type EmptyError struct {
	Msg string
}

func (e *EmptyError) Error() string {
	return "No item found for " + e.Msg
}

// NotUniqueError reports a query that was expected to yield one item but
// yielded several.
type NotUniqueError struct {
	Msg string
}

func (e *NotUniqueError) Error() string {
	return "Multiple items found for " + e.Msg
}

// CheckUnique validates that items holds exactly one element. msg names
// the query in the error message and is not otherwise interpreted.
func CheckUnique[T any](items []T, msg string) error {
	switch {
	case len(items) == 0:
		return &EmptyError{Msg: msg}
	case len(items) > 1:
		return &NotUniqueError{Msg: msg}
	}
	return nil
}
