package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNilLoggerSafety(t *testing.T) {
	original := log
	log = nil
	defer func() { log = original }()

	Debug("test debug")
	Info("test info")
	Warn("test warn")
	Error("test error")
	With(zap.String("key", "value")).Info("test with")
	WithRequestID("test-id").Info("test with request id")

	if Get() == nil {
		t.Error("Get() returned nil logger")
	}
	if err := Sync(); err != nil {
		t.Errorf("Sync() on nil logger: %v", err)
	}
}

func TestDevelopmentConfig(t *testing.T) {
	l, err := Init(Config{Level: "debug", Output: "stdout"}, "development")
	if err != nil {
		t.Fatalf("Failed to initialize development logger: %v", err)
	}
	defer Sync()

	if l != Get() {
		t.Error("Init should install the returned logger")
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level should be enabled")
	}
	Info("Development logger initialized", zap.String("env", "development"))
	Warn("Warning message with fields", zap.String("component", "test"), zap.Int("value", 42))
}

func TestDynamicLogLevel(t *testing.T) {
	if _, err := Init(Config{Level: "debug", Output: "stdout"}, "development"); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	defer Sync()

	if err := UpdateLevel("warn"); err != nil {
		t.Fatalf("UpdateLevel: %v", err)
	}
	if Get().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled after raising the level to warn")
	}

	if err := UpdateLevel("loud"); err == nil {
		t.Error("unknown level should be rejected")
	}
	if Level() != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", Level())
	}

	if err := UpdateLevel("debug"); err != nil {
		t.Fatalf("UpdateLevel: %v", err)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	if _, err := Init(Config{Level: "chatty", Output: "stdout"}, "production"); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	defer Sync()
	if Level() != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", Level())
	}
}

func TestFileOutput(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "logs", "catalog.log")

	_, err := Init(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: testFile,
	}, "production")
	if err != nil {
		t.Fatalf("Failed to initialize file logger: %v", err)
	}

	Info("File logger initialized")
	for i := 0; i < 10; i++ {
		Info("Log entry for test", zap.Int("entry", i), zap.Duration("elapsed", time.Millisecond))
	}
	if err := Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	fileInfo, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Log file not created: %v", err)
	}
	if fileInfo.Size() == 0 {
		t.Fatal("Log file is empty")
	}
}
