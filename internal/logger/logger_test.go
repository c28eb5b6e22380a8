package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathCreatesDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("unexpected log dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestReleaseModeWritesJSONToFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Sugar().Infow("order_confirmed", "order_id", 7)
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"message":"order_confirmed"`) {
		t.Fatalf("expected json message, got: %s", text)
	}
	if !strings.Contains(text, `"order_id":7`) {
		t.Fatalf("expected order_id field, got: %s", text)
	}
}

func TestZFallsBackWithoutInit(t *testing.T) {
	saved := L
	L = nil
	t.Cleanup(func() { L = saved })

	if Z() == nil {
		t.Fatalf("expected fallback logger")
	}
	SW("request_id", "abc").Debugw("noop")
}

func TestPositiveOr(t *testing.T) {
	if positiveOr(0, 5) != 5 || positiveOr(-1, 5) != 5 || positiveOr(3, 5) != 3 {
		t.Fatalf("positiveOr returned unexpected value")
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
	scoped := S().With("request_id", "req-1")
	ctx := WithContext(context.Background(), scoped)
	if FromContext(ctx) != scoped {
		t.Fatalf("expected scoped logger from context")
	}
}
