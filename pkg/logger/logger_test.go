package logger

import "testing"

func TestInitLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := InitLogger(level); err != nil {
			t.Errorf("InitLogger(%q) = %v, want nil", level, err)
		}
		if GetLogger() == nil {
			t.Errorf("GetLogger() = nil after InitLogger(%q)", level)
		}
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if err := InitLogger("loud"); err == nil {
		t.Error("InitLogger must reject unknown levels")
	}
}

func TestGetLoggerBeforeInit(t *testing.T) {
	if GetLogger() == nil {
		t.Error("GetLogger must fall back to a usable logger")
	}
}
