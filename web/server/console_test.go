package server

import (
	"testing"
	"time"
)

func TestWebLogger_Levels(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-123", messageChan)

	tests := []struct {
		log   func(string, ...interface{})
		level string
	}{
		{logger.Debugf, "debug"},
		{logger.Infof, "info"},
		{logger.Warningf, "warning"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			tt.log("Loading %s with %d curves", "hair", 288)

			select {
			case msg := <-messageChan:
				expected := "Loading hair with 288 curves"
				if msg.Message != expected {
					t.Errorf("Expected message '%s', got '%s'", expected, msg.Message)
				}
				if msg.Level != tt.level {
					t.Errorf("Expected level '%s', got '%s'", tt.level, msg.Level)
				}
				if time.Since(msg.Timestamp) > time.Second {
					t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
				}
			case <-time.After(100 * time.Millisecond):
				t.Error("Timeout waiting for console message")
			}
		})
	}
}

func TestWebLogger_MultipleMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := NewWebLogger("test-render-456", messageChan)

	messages := []string{"Message 1", "Message 2", "Message 3"}
	for _, msg := range messages {
		logger.Infof("%s", msg)
	}

	for i, expected := range messages {
		select {
		case msg := <-messageChan:
			if msg.Message != expected {
				t.Errorf("Message %d: expected '%s', got '%s'", i, expected, msg.Message)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestWebLogger_ChannelFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("test-render-789", messageChan)

	logger.Infof("Message 1")
	// These must not block even though the channel is full
	logger.Infof("Message 2")
	logger.Warningf("Message 3")

	if msg := <-messageChan; msg.Message != "Message 1" {
		t.Errorf("Expected the first message to be kept, got '%s'", msg.Message)
	}
	select {
	case msg := <-messageChan:
		t.Errorf("Expected dropped messages, got '%s'", msg.Message)
	default:
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("test-render-nil", nil)

	// This should not panic
	logger.Infof("Test message with nil channel")
}
