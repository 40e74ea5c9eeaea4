package ffmpeg

import (
	"net/http"
	"os"
	"os/exec"
)

// ---------------------------------------------------------------------------
// Interfaces - local to this package
// ---------------------------------------------------------------------------

// fileSystem abstracts the filesystem operations the resolver performs.
type fileSystem interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(name string) error
	Chmod(name string, mode os.FileMode) error
	CreateTemp(dir, pattern string) (*os.File, error)
}

// httpDoer abstracts HTTP client operations.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// envProvider abstracts environment and PATH lookups.
type envProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
	LookPath(file string) (string, error)
}

// ---------------------------------------------------------------------------
// Default implementations
// ---------------------------------------------------------------------------

var (
	_ fileSystem  = osFileSystem{}
	_ envProvider = osEnvProvider{}
)

type osFileSystem struct{}

func (osFileSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osFileSystem) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths come from the install directory, not user input
	return os.ReadFile(name)
}

func (osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (osFileSystem) Remove(name string) error                     { return os.Remove(name) }
func (osFileSystem) Chmod(name string, mode os.FileMode) error    { return os.Chmod(name, mode) }

func (osFileSystem) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string             { return os.Getenv(key) }
func (osEnvProvider) UserHomeDir() (string, error)         { return os.UserHomeDir() }
func (osEnvProvider) LookPath(file string) (string, error) { return exec.LookPath(file) }
