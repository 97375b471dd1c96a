package epp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/michaelberinski/genologics/internal/log"
	"github.com/michaelberinski/genologics/pkg/lims"
)

// Package is the module whose version is stamped into every run log.
const Package = "github.com/michaelberinski/genologics"

const timestampLayout = "2006-01-02 15:04:05,000"

// lineFormatter renders records as timestamp:LEVEL:name:message, one line
// per record.
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	name := "root"
	if v, ok := e.Data["logger"].(string); ok && v != "" {
		name = v
	}
	line := fmt.Sprintf("%s:%s:%s:%s\n",
		e.Time.Format(timestampLayout), strings.ToUpper(e.Level.String()), name, e.Message)
	return []byte(line), nil
}

// LoggerOption configures a Logger before Start.
type LoggerOption func(*Logger)

// WithLevel sets the minimum severity written to the run log.
func WithLevel(level logrus.Level) LoggerOption {
	return func(l *Logger) { l.level = level }
}

// WithLims wires the LIMS client and base URI used to prepend a previous
// run's log. baseURI is the LIMS authority, e.g. "https://lims.example.com".
func WithLims(finder lims.ArtifactFinder, baseURI string) LoggerOption {
	return func(l *Logger) {
		l.finder = finder
		l.baseURI = baseURI
	}
}

// WithPrepend requests that the previous run's log, if the LIMS holds one
// under the log file's name, is copied in before new records are appended.
func WithPrepend() LoggerOption {
	return func(l *Logger) { l.prepend = true }
}

// Logger redirects the process's stdout and stderr into a run log file
// for the duration of a run. It owns process-global stream state: at most
// one Logger may be active in a process, and runs must not be nested.
//
// Usage is Start, work, Stop(err). Stop with a nil error restores the
// original streams and closes the log; Stop with the run's error leaves
// the redirection installed so late diagnostics still land in the log,
// and returns the error unchanged.
type Logger struct {
	logFile string
	level   logrus.Level
	finder  lims.ArtifactFinder
	baseURI string
	prepend bool

	log  *logrus.Logger
	file *os.File

	savedStdout *os.File
	savedStderr *os.File
	stdoutW     *os.File
	stderrW     *os.File
	wg          sync.WaitGroup
}

// NewLogger returns a Logger targeting logFile. The file name doubles as
// the LIMS artifact id of the log when prepending is requested.
func NewLogger(logFile string, opts ...LoggerOption) *Logger {
	l := &Logger{logFile: logFile, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start prepends the old log when requested, opens the log file in append
// mode, redirects stdout and stderr into it and writes the version record.
// Missing build metadata is fatal: the process exits non-zero, since a
// broken installation invalidates everything a script would do next.
func (l *Logger) Start() error {
	if l.prepend {
		if err := l.PrependOldLog(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open log file %s", l.logFile)
	}
	l.file = f
	l.log = logrus.New()
	l.log.SetOutput(f)
	l.log.SetLevel(l.level)
	l.log.SetFormatter(lineFormatter{})

	l.savedStdout = os.Stdout
	l.savedStderr = os.Stderr
	if l.stdoutW, err = l.redirect(&os.Stdout, "STDOUT", logrus.InfoLevel); err != nil {
		l.undoRedirect()
		l.wg.Wait()
		l.closeFile()
		return err
	}
	if l.stderrW, err = l.redirect(&os.Stderr, "STDERR", logrus.ErrorLevel); err != nil {
		l.undoRedirect()
		l.wg.Wait()
		l.closeFile()
		return err
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		l.log.Error("build metadata unavailable")
		l.log.Fatalf("Make sure the %s module is installed with module support", Package)
	}
	l.log.Infof("Version: %s", moduleVersion(info))
	return nil
}

// Stop releases the run scope. A nil runErr restores the original streams,
// drains the captures and closes the log file. A non-nil runErr is
// returned unchanged and the redirection stays installed so the failure's
// own diagnostics remain captured.
func (l *Logger) Stop(runErr error) error {
	if runErr != nil {
		return runErr
	}
	if l.file == nil {
		return errors.New("logger was not started")
	}
	l.undoRedirect()
	l.wg.Wait()
	return l.closeFile()
}

func (l *Logger) closeFile() error {
	err := l.file.Close()
	l.file = nil
	return err
}

// Run wraps fn in a logging scope: Start, fn, Stop.
func (l *Logger) Run(fn func() error) error {
	if err := l.Start(); err != nil {
		return err
	}
	return l.Stop(fn())
}

// Stdout returns the writer stdout is redirected through, for wiring
// child processes into the capture.
func (l *Logger) Stdout() io.Writer { return l.stdoutW }

// Stderr returns the writer stderr is redirected through.
func (l *Logger) Stderr() io.Writer { return l.stderrW }

// redirect swaps *target for the write end of a pipe whose read end emits
// every non-empty, right-trimmed line as one record under the given
// channel name. Lines are logged as they arrive, without batching, and
// may be arbitrarily long.
func (l *Logger) redirect(target **os.File, name string, level logrus.Level) (*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrapf(err, "create %s pipe", name)
	}
	entry := l.log.WithField("logger", name)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer r.Close()
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			line = strings.TrimRight(line, " \t\r\n")
			if line != "" {
				entry.Log(level, line)
			}
			if err != nil {
				return
			}
		}
	}()
	*target = w
	return w, nil
}

// undoRedirect restores both streams and closes the pipe writers so the
// capture goroutines see EOF and drain.
func (l *Logger) undoRedirect() {
	if l.savedStdout != nil {
		os.Stdout = l.savedStdout
	}
	if l.savedStderr != nil {
		os.Stderr = l.savedStderr
	}
	if l.stdoutW != nil {
		l.stdoutW.Close()
		l.stdoutW = nil
	}
	if l.stderrW != nil {
		l.stderrW.Close()
		l.stderrW = nil
	}
}

// PrependOldLog copies the previous run's log, stored in the LIMS under
// the log file's name, over the log file so new records continue after
// the old content. This is concatenation, not chronological interleaving.
//
// A missing artifact is expected on a first run and only warned about.
// A copy or path failure is a configuration problem and comes back to the
// caller after being logged.
func (l *Logger) PrependOldLog() error {
	if l.finder == nil {
		return errors.New("no LIMS client configured for log prepending")
	}
	artifact, err := l.finder.GetArtifact(l.logFile)
	if errors.Is(err, lims.ErrNotFound) {
		log.GetLogger().Warnf("No log file artifact found for id: %s", l.logFile)
		return nil
	}
	if err != nil {
		return err
	}
	if len(artifact.Files) == 0 {
		return nil
	}

	localPath, err := l.localPath(artifact.Files[0].ContentLocation)
	if err != nil {
		log.GetLogger().Errorf("Log could not be prepended: %v", err)
		return err
	}
	destination := l.logFile
	if !filepath.IsAbs(destination) {
		dir, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "resolve working directory")
		}
		destination = filepath.Join(dir, destination)
	}
	if err := copyFile(localPath, destination); err != nil {
		log.GetLogger().Errorf("Log could not be prepended, make sure %s and %s are proper paths", localPath, l.logFile)
		return err
	}
	return nil
}

// localPath maps a stored content location onto the local filesystem by
// stripping the base URI's authority prefix.
func (l *Logger) localPath(contentLocation string) (string, error) {
	parts := strings.SplitN(l.baseURI, ":", 2)
	if len(parts) != 2 {
		return "", errors.Errorf("malformed base URI %q", l.baseURI)
	}
	i := strings.Index(contentLocation, parts[1])
	if i < 0 {
		return "", errors.Errorf("content location %q does not match base URI %q", contentLocation, l.baseURI)
	}
	return contentLocation[i+len(parts[1]):], nil
}

// moduleVersion digs the module's version out of build metadata. Test and
// development builds report "(devel)".
func moduleVersion(info *debug.BuildInfo) string {
	version := info.Main.Version
	for _, dep := range info.Deps {
		if dep.Path == Package {
			version = dep.Version
		}
	}
	if version == "" {
		version = "(devel)"
	}
	return version
}
