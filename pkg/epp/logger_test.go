package epp_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/michaelberinski/genologics/internal/log"
	"github.com/michaelberinski/genologics/pkg/epp"
	"github.com/michaelberinski/genologics/pkg/lims"
	"github.com/michaelberinski/genologics/pkg/models"
)

const baseURI = "https://lims.example.com"

// captureConsole routes the shared console logger into a buffer for the
// duration of the test.
func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := log.GetLogger()
	orig := logger.Out
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(orig) })
	return &buf
}

func logLines(t *testing.T, logFile string) []string {
	t.Helper()
	data, err := os.ReadFile(logFile)
	assert.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLogger(t *testing.T) {
	t.Run("CapturesStreamsWithinScope", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-1234")
		logger := epp.NewLogger(logFile)
		assert.NoError(t, logger.Start())

		fmt.Println("hello from the script")
		fmt.Fprintln(os.Stderr, "something went wrong")

		assert.NoError(t, logger.Stop(nil))
		fmt.Println("after the scope, not captured")

		lines := logLines(t, logFile)
		assert.Len(t, lines, 3)
		// Version record first, then the captured lines in either stream order
		assert.Contains(t, lines[0], ":INFO:root:Version: ")
		content := strings.Join(lines, "\n")
		assert.Contains(t, content, ":INFO:STDOUT:hello from the script")
		assert.Contains(t, content, ":ERROR:STDERR:something went wrong")
		assert.NotContains(t, content, "after the scope")
	})

	t.Run("FailedRunLeavesRedirectionInstalled", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-1235")
		origStdout := os.Stdout
		origStderr := os.Stderr
		logger := epp.NewLogger(logFile)
		assert.NoError(t, logger.Start())
		t.Cleanup(func() { logger.Stop(nil) })

		runErr := errors.New("script blew up")
		got := logger.Stop(runErr)
		assert.Equal(t, runErr, got)
		assert.NotEqual(t, origStdout, os.Stdout)
		assert.NotEqual(t, origStderr, os.Stderr)
	})

	t.Run("TrimsTrailingWhitespaceAndSkipsBlankLines", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-1236")
		logger := epp.NewLogger(logFile)
		assert.NoError(t, logger.Start())

		fmt.Print("padded line   \n\n\n")

		assert.NoError(t, logger.Stop(nil))
		lines := logLines(t, logFile)
		assert.Len(t, lines, 2)
		assert.True(t, strings.HasSuffix(lines[1], ":INFO:STDOUT:padded line"))
	})

	t.Run("CapturesLinesBeyondBufferSize", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-1238")
		logger := epp.NewLogger(logFile)
		assert.NoError(t, logger.Start())

		// A wide TSV row easily exceeds default reader buffers; the
		// capture must survive it and keep the stream alive afterwards.
		wide := strings.Repeat("x", 70*1024)
		fmt.Println(wide)
		fmt.Println("later line on the same stream")

		assert.NoError(t, logger.Stop(nil))
		lines := logLines(t, logFile)
		assert.Len(t, lines, 3)
		assert.True(t, strings.HasSuffix(lines[1], ":INFO:STDOUT:"+wide))
		assert.True(t, strings.HasSuffix(lines[2], ":INFO:STDOUT:later line on the same stream"))
	})

	t.Run("RespectsLevelThreshold", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-1237")
		logger := epp.NewLogger(logFile, epp.WithLevel(logrus.ErrorLevel))
		assert.NoError(t, logger.Start())

		fmt.Println("info line, below threshold")
		fmt.Fprintln(os.Stderr, "error line")

		assert.NoError(t, logger.Stop(nil))
		content := strings.Join(logLines(t, logFile), "\n")
		assert.Contains(t, content, ":ERROR:STDERR:error line")
		assert.NotContains(t, content, "below threshold")
	})
}

func TestLoggerPrepend(t *testing.T) {
	t.Run("NoArtifactWarnsAndContinues", func(t *testing.T) {
		console := captureConsole(t)
		logFile := filepath.Join(t.TempDir(), "24-2001")
		logger := epp.NewLogger(logFile,
			epp.WithLims(lims.NewMockLims(), baseURI),
			epp.WithPrepend())
		assert.NoError(t, logger.Start())
		assert.NoError(t, logger.Stop(nil))

		assert.Contains(t, console.String(), "No log file artifact found for id: "+logFile)
		lines := logLines(t, logFile)
		assert.Contains(t, lines[0], "Version: ")
	})

	t.Run("OldLogPrecedesNewRecords", func(t *testing.T) {
		dir := t.TempDir()
		oldPath := filepath.Join(dir, "old.log")
		assert.NoError(t, os.WriteFile(oldPath, []byte("old run content\n"), 0o644))

		logFile := filepath.Join(dir, "24-2002")
		finder := lims.NewMockLims(models.Artifact{
			ID: logFile,
			Files: []models.ArtifactFile{
				{ID: "40-1", ContentLocation: "sftp://lims.example.com" + oldPath},
			},
		})
		logger := epp.NewLogger(logFile, epp.WithLims(finder, baseURI), epp.WithPrepend())
		assert.NoError(t, logger.Start())
		fmt.Println("new record")
		assert.NoError(t, logger.Stop(nil))

		lines := logLines(t, logFile)
		assert.Equal(t, "old run content", lines[0])
		assert.Contains(t, lines[1], "Version: ")
		assert.Contains(t, lines[2], ":INFO:STDOUT:new record")
	})

	t.Run("BadLocalPathFailsAfterLogging", func(t *testing.T) {
		console := captureConsole(t)
		dir := t.TempDir()
		logFile := filepath.Join(dir, "24-2003")
		finder := lims.NewMockLims(models.Artifact{
			ID: logFile,
			Files: []models.ArtifactFile{
				{ID: "40-2", ContentLocation: "sftp://lims.example.com" + filepath.Join(dir, "gone.log")},
			},
		})
		logger := epp.NewLogger(logFile, epp.WithLims(finder, baseURI), epp.WithPrepend())
		err := logger.Start()
		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, console.String(), "Log could not be prepended")
	})

	t.Run("OtherLimsErrorsPropagate", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "24-2004")
		transportErr := errors.New("lims: 500 internal server error")
		logger := epp.NewLogger(logFile,
			epp.WithLims(failingFinder{err: transportErr}, baseURI),
			epp.WithPrepend())
		err := logger.Start()
		assert.ErrorIs(t, err, transportErr)
	})
}

type failingFinder struct {
	err error
}

func (f failingFinder) GetArtifact(id string) (models.Artifact, error) {
	return models.Artifact{}, f.err
}
