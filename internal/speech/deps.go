package speech

import (
	"context"
	"os"
	"os/exec"
)

// envProvider abstracts environment lookups for binary and model discovery.
type envProvider interface {
	Getenv(key string) string
	LookPath(file string) (string, error)
	UserHomeDir() (string, error)
}

type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string             { return os.Getenv(key) }
func (osEnvProvider) LookPath(file string) (string, error) { return exec.LookPath(file) }
func (osEnvProvider) UserHomeDir() (string, error)         { return os.UserHomeDir() }

// statFunc reports whether a file exists.
type statFunc func(name string) (os.FileInfo, error)

// commandRunner runs an external command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args []string) ([]byte, error)

func runCommand(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binary resolved by FindWhisperCLI
	return cmd.CombinedOutput()
}
