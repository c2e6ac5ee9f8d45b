package reactor

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type used throughout the package, an
// alias for the stumpy-backed logiface logger.
type Logger = logiface.Logger[*stumpy.Event]

// defaultLogger is the logger used by loops constructed without an
// explicit WithLogger option. It writes JSON records to stderr at
// informational level and above.
var defaultLogger = stumpy.L.New(
	stumpy.WithStumpy(),
	logiface.WithLevel[*stumpy.Event](logiface.LevelInformational),
)

// NewLogger constructs a Logger writing to w at the given level. A nil w
// defaults to os.Stderr.
func NewLogger(w *os.File, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](level),
	)
}

// logPollError records a fatal poller failure that forces loop shutdown.
func logPollError(logger *Logger, loopID uint64, err error) {
	if logger == nil {
		logger = defaultLogger
	}
	logger.Crit().
		Uint64("loop_id", loopID).
		Err(err).
		Log("poll failed, terminating loop")
}

// logTaskPanic records a recovered panic from task execution.
func logTaskPanic(logger *Logger, loopID uint64, recovered any) {
	if logger == nil {
		logger = defaultLogger
	}
	logger.Err().
		Uint64("loop_id", loopID).
		Interface("recovered", recovered).
		Log("task panicked")
}
