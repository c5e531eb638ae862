package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/df07/go-curve-kernels/pkg/core"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(&bytes.Buffer{})

	logger := New("curves-test")
	var _ core.Logger = logger

	SetLevel(Notice)
	logger.Debugf("hidden %d", 1)
	logger.Infof("hidden %d", 2)
	logger.Noticef("shown %d", 3)
	logger.Warningf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown 3") || !strings.Contains(out, "shown 4") {
		t.Errorf("Expected notice and warning output, got %q", out)
	}
	if !strings.Contains(out, "[curves-test]") {
		t.Errorf("Expected module name in output, got %q", out)
	}

	buf.Reset()
	SetLevel(Debug)
	logger.Debugf("visible %s", "now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Errorf("Expected debug output after SetLevel(Debug), got %q", buf.String())
	}
}

func TestSetSink_KeepsLevel(t *testing.T) {
	defer SetLevel(GetLevel())
	SetLevel(Warning)

	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(&bytes.Buffer{})

	logger := New("curves-sink")
	logger.Noticef("dropped")
	logger.Warningf("kept")

	if GetLevel() != Warning {
		t.Errorf("Expected level Warning after SetSink, got %d", GetLevel())
	}
	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("Expected only the warning in the new sink, got %q", out)
	}

	SetLevel(Level(42))
	if GetLevel() != Warning {
		t.Errorf("Expected an unknown level to be ignored, got %d", GetLevel())
	}
}
