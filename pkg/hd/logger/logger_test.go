package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "json", &buf).Infof("ticket %s stored", "abc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output expected, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "ticket abc stored" || entry["service"] != "helpdesk" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	NewLogger("info", "text", &buf).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "text", &buf)
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("output = %q", out)
	}
}
