package cli

// Notes:
// - Config commands touch the real config file; each test points
//   XDG_CONFIG_HOME at a temp dir with t.Setenv, so none run in parallel.
// - Environment fallbacks go through env.Getenv, never the process env.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-videocut/internal/config"
	"github.com/alnah/go-videocut/internal/lang"
)

// useConfigDir isolates the config file under a temp dir and returns its path.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "go-videocut", "config")
}

// ---------------------------------------------------------------------------
// Tests for config set
// ---------------------------------------------------------------------------

func TestConfigSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "threshold", key: "silence-db", value: "-35"},
		{name: "margin", key: "cut-margin", value: "0.1"},
		{name: "recognizer", key: "recognizer", value: "whisper"},
		{name: "empty recognizer", key: "recognizer", value: ""},
		{name: "language", key: "language", value: "pt-BR"},
		{name: "timeout", key: "cleanup-timeout", value: "2m"},
		{name: "unknown key", key: "threshold", value: "-35", wantErr: config.ErrUnknownKey},
		{name: "not a number", key: "min-silence", value: "short", wantErr: config.ErrInvalidValue},
		{name: "positive threshold", key: "silence-db", value: "3", wantErr: config.ErrInvalidValue},
		{name: "bad bool", key: "enhance", value: "maybe", wantErr: config.ErrInvalidValue},
		{name: "bad recognizer", key: "recognizer", value: "vosk", wantErr: ErrUnknownRecognizer},
		{name: "bad language", key: "language", value: "klingon", wantErr: lang.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := useConfigDir(t)
			stderr := &syncBuffer{}
			env, _ := testEnv(withTestStderr(stderr))

			err := execute(context.Background(), ConfigCmd(env), "set", tt.key, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("config set error = %v, want %v", err, tt.wantErr)
				}
				if _, statErr := os.Stat(path); statErr == nil {
					t.Error("config file written despite invalid value")
				}
				return
			}
			if err != nil {
				t.Fatalf("config set unexpected error: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("config file not written: %v", err)
			}
			if want := tt.key + "=" + tt.value + "\n"; string(data) != want {
				t.Errorf("config file = %q, want %q", data, want)
			}
			if !strings.Contains(stderr.String(), "Set "+tt.key+" = ") {
				t.Errorf("stderr = %q, want confirmation", stderr.String())
			}
		})
	}
}

func TestConfigSet_NegativeValueAfterDoubleDash(t *testing.T) {
	path := useConfigDir(t)
	env, _ := testEnv()

	if err := execute(context.Background(), ConfigCmd(env), "set", "silence-db", "--", "-42"); err != nil {
		t.Fatalf("config set unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "silence-db=-42\n" {
		t.Errorf("config file = %q", data)
	}
}

func TestConfigSet_KeepsOtherKeys(t *testing.T) {
	path := useConfigDir(t)
	env, _ := testEnv()

	for _, kv := range [][2]string{{"cut-margin", "0.3"}, {"silence-db", "-40"}, {"cut-margin", "0.1"}} {
		if err := execute(context.Background(), ConfigCmd(env), "set", kv[0], "--", kv[1]); err != nil {
			t.Fatalf("config set %s: %v", kv[0], err)
		}
	}

	data, _ := os.ReadFile(path)
	if string(data) != "silence-db=-40\ncut-margin=0.1\n" {
		t.Errorf("config file = %q", data)
	}
}

// ---------------------------------------------------------------------------
// Tests for config get
// ---------------------------------------------------------------------------

func TestConfigGet(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		environ map[string]string
		key     string
		want    string
		wantErr error
	}{
		{name: "from file", file: "min-silence=0.8\n", key: "min-silence", want: "0.8\n"},
		{
			name:    "file wins over env",
			file:    "min-silence=0.8\n",
			environ: map[string]string{"VIDEOCUT_MIN_SILENCE": "1.2"},
			key:     "min-silence",
			want:    "0.8\n",
		},
		{
			name:    "env fallback",
			environ: map[string]string{"VIDEOCUT_RECOGNIZER": "whisper"},
			key:     "recognizer",
			want:    "whisper\n",
		},
		{name: "unset", key: "video-codec", want: ""},
		{name: "unknown key", key: "codec", wantErr: config.ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := useConfigDir(t)
			if tt.file != "" {
				writeTestConfig(t, path, tt.file)
			}
			stdout := &syncBuffer{}
			env, _ := testEnv(withTestStdout(stdout), withTestGetenv(staticEnv(tt.environ)))

			err := execute(context.Background(), ConfigCmd(env), "get", tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("config get error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("config get unexpected error: %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tests for config list
// ---------------------------------------------------------------------------

func TestConfigList_Empty(t *testing.T) {
	useConfigDir(t)
	stdout := &syncBuffer{}
	env, _ := testEnv(withTestStdout(stdout), withTestGetenv(staticEnv(nil)))

	if err := execute(context.Background(), ConfigCmd(env), "list"); err != nil {
		t.Fatalf("config list unexpected error: %v", err)
	}
	out := stdout.String()
	for _, s := range []string{"No configuration set.", "Available settings:", "silence-db", "VIDEOCUT_CLEANUP_MODEL"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestConfigList_FileAndEnv(t *testing.T) {
	path := useConfigDir(t)
	writeTestConfig(t, path, "language=fr\nsilence-db=-35\n")
	stdout := &syncBuffer{}
	env, _ := testEnv(
		withTestStdout(stdout),
		withTestGetenv(staticEnv(map[string]string{
			"VIDEOCUT_SILENCE_DB": "-20",
			"LOG_LEVEL":           "debug",
		})),
	)

	if err := execute(context.Background(), ConfigCmd(env), "list"); err != nil {
		t.Fatalf("config list unexpected error: %v", err)
	}

	want := "silence-db=-35\nlanguage=fr\nlog-level=debug (from env)\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func writeTestConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
