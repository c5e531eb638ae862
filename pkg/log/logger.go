package log

import (
	"io"
	"os"
	"sync"

	"github.com/op/go-logging"
)

// Level orders log output from most to least verbose
type Level logging.Level

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

// backendLevels maps our levels onto go-logging's, which count the other way
var backendLevels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	mu      sync.Mutex
	backend logging.LeveledBackend
	current = Notice
)

// Logger is what every package logs through. It satisfies core.Logger, so it
// can be handed straight to the intersector, the BVH builder and the renderer.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the logger for module name. Loggers share one sink and level.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink sends all output to sink, keeping the current level
func SetSink(sink io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(backendLevels[current], "")
	logging.SetBackend(backend)
}

// SetLevel drops everything less severe than level. Unknown levels are ignored.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()

	lvl, ok := backendLevels[level]
	if !ok {
		return
	}
	current = level
	backend.SetLevel(lvl, "")
}

// GetLevel returns the active level
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return current
}

func init() {
	SetSink(os.Stderr)
}
