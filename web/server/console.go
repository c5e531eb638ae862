package server

import (
	"fmt"
	"time"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/log"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning"
}

// WebLogger implements core.Logger by sending messages to a console channel
// and mirroring them to the server log
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	server      log.Logger
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		server:      logger,
	}
}

func (wl *WebLogger) Debugf(format string, args ...interface{}) {
	wl.server.Debugf("[%s] "+format, append([]interface{}{wl.renderID}, args...)...)
	wl.send("debug", format, args...)
}

func (wl *WebLogger) Infof(format string, args ...interface{}) {
	wl.server.Infof("[%s] "+format, append([]interface{}{wl.renderID}, args...)...)
	wl.send("info", format, args...)
}

func (wl *WebLogger) Warningf(format string, args ...interface{}) {
	wl.server.Warningf("[%s] "+format, append([]interface{}{wl.renderID}, args...)...)
	wl.send("warning", format, args...)
}

// send forwards a message to the web console without blocking
func (wl *WebLogger) send(level, format string, args ...interface{}) {
	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
		Level:     level,
	}:
	default:
		// Channel full, skip (don't block)
	}
}
