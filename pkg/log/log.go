// Package log wraps logrus with the fields cartgraph threads through every
// node, graph, and traversal operation (node, worker, object), mirroring how
// the teacher's options.Options carries a single *logrus.Entry end to end.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging handle passed around the codebase. It is a thin
// alias over *logrus.Entry so call sites can attach structured fields
// (WithField/WithFields) without cartgraph inventing its own interface.
type Logger = logrus.Entry

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetOutput(os.Stderr)
}

// New returns a fresh root logger with no fields attached.
func New() *Logger {
	return logrus.NewEntry(base)
}

// SetOutput redirects the package-level base logger shared by every Logger
// that New returns.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetLevel parses and applies a level name (debug, info, warn, error); an
// unrecognized name is ignored and the previous level is kept.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return
	}

	base.SetLevel(lvl)
}

// WithNode returns a derived logger carrying the given node id as a field.
func WithNode(l *Logger, nodeID string) *Logger {
	return l.WithField("node", nodeID)
}

// WithWorker returns a derived logger carrying the given worker id as a field.
func WithWorker(l *Logger, workerID string) *Logger {
	return l.WithField("worker", workerID)
}

// WithObject returns a derived logger carrying the given object suffix as a field.
func WithObject(l *Logger, objectSuffix string) *Logger {
	return l.WithField("object", objectSuffix)
}
