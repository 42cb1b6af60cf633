package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaultLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		logged  []string
		dropped []string
	}{
		{"debug", LevelDebug, []string{"d-msg", "i-msg", "w-msg", "e-msg"}, nil},
		{"warn", LevelWarn, []string{"w-msg", "e-msg"}, []string{"d-msg", "i-msg"}},
		{"silent", LevelSilent, nil, []string{"d-msg", "i-msg", "w-msg", "e-msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewDefaultLogger(tt.level, WithOutput(&buf))
			ctx := context.Background()

			l.Debug(ctx, "d-msg")
			l.Info(ctx, "i-msg")
			l.Warn(ctx, "w-msg")
			l.Error(ctx, "e-msg")

			out := buf.String()
			for _, m := range tt.logged {
				if !strings.Contains(out, m) {
					t.Errorf("expected %q in output %q", m, out)
				}
			}
			for _, m := range tt.dropped {
				if strings.Contains(out, m) {
					t.Errorf("did not expect %q in output %q", m, out)
				}
			}
		})
	}
}

func TestJSONFormatWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger(LevelInfo, WithOutput(&buf), WithFormat(JSONFormat)).
		WithFields(map[string]interface{}{"workerID": 3})

	l.Info(context.Background(), "worker started", "tasks", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "worker started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["workerID"] != float64(3) {
		t.Errorf("workerID = %v", entry["workerID"])
	}
	if entry["tasks"] != float64(7) {
		t.Errorf("tasks = %v", entry["tasks"])
	}
}

func TestPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, WithOutput(&buf))
	defer SetLogger(nil)

	Info(context.Background(), "hello", "k", "v")
	Debug(context.Background(), "hidden")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %q", out)
	}

	SetLogger(nil)
	buf.Reset()
	Error(context.Background(), "silenced")
	if buf.Len() != 0 {
		t.Errorf("expected no output after SetLogger(nil), got %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "warn" || LevelSilent.String() != "silent" || Level(42).String() != "unknown" {
		t.Error("unexpected level names")
	}
}
