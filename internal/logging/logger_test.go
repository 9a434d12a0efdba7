package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

func TestHelpersWriteToLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	L.SetLevel(clog.DebugLevel)
	defer func() { L = prev }()

	Debugf("derive %s", "start")
	Infof("stored %d", 2)
	Warnf("keyring unavailable")
	Errorf("failed: %v", "boom")

	out := buf.String()
	for _, want := range []string{"derive start", "stored 2", "keyring unavailable", "failed: boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output: %s", want, out)
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	defer func() { L = prev }()

	if err := SetLevel("error"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Warnf("hidden")
	if buf.Len() != 0 {
		t.Fatalf("warn should be filtered at error level, got %q", buf.String())
	}

	if err := SetLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
