// Package ffmpeg locates, installs, and runs the ffmpeg binary that backs the
// media transcoder.
package ffmpeg

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Prebuilt binaries from github.com/eugeneware/ffmpeg-static release b6.1.1.
const (
	ffmpegVersion   = "6.1.1"
	downloadBaseURL = "https://github.com/eugeneware/ffmpeg-static/releases/download/b6.1.1"

	// downloadTimeout covers a ~30MB gzipped binary on a slow connection.
	downloadTimeout = 10 * time.Minute

	versionFileName = ".version"
	installDirPerm  = 0750

	// minMajorVersion is the oldest ffmpeg with the select/aselect and
	// loudnorm behavior the export filters rely on.
	minMajorVersion = 4
)

// EnvPath names the variable that pins the ffmpeg binary.
const EnvPath = "FFMPEG_PATH"

var defaultHTTPClient = &http.Client{
	Timeout: downloadTimeout,
	Transport: &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}

// binaryInfo describes a downloadable gzipped ffmpeg build.
type binaryInfo struct {
	URL    string
	SHA256 string
}

func platformInfo(goos, goarch string) (binaryInfo, bool) {
	builds := map[string]binaryInfo{
		"darwin-arm64": {
			URL:    downloadBaseURL + "/ffmpeg-darwin-arm64.gz",
			SHA256: "8923876afa8db5585022d7860ec7e589af192f441c56793971276d450ed3bbfa",
		},
		"darwin-amd64": {
			URL:    downloadBaseURL + "/ffmpeg-darwin-x64.gz",
			SHA256: "5d8fb6f280c428d0e82cd5ee68215f0734d64f88e37dcc9e082f818c9e5025f0",
		},
		"linux-amd64": {
			URL:    downloadBaseURL + "/ffmpeg-linux-x64.gz",
			SHA256: "bfe8a8fc511530457b528c48d77b5737527b504a3797a9bc4866aeca69c2dffa",
		},
		"windows-amd64": {
			URL:    downloadBaseURL + "/ffmpeg-win32-x64.gz",
			SHA256: "8883a3dffbd0a16cf4ef95206ea05283f78908dbfb118f73c83f4951dcc06d77",
		},
	}
	info, ok := builds[goos+"-"+goarch]
	return info, ok
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

// Resolver finds ffmpeg and, when allowed, installs a pinned build.
type Resolver struct {
	fs           fileSystem
	http         httpDoer
	env          envProvider
	log          zerolog.Logger
	goos         string
	goarch       string
	autoDownload bool
	build        *binaryInfo
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileSystem sets the filesystem implementation.
func WithFileSystem(fs fileSystem) ResolverOption {
	return func(r *Resolver) { r.fs = fs }
}

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(c httpDoer) ResolverOption {
	return func(r *Resolver) { r.http = c }
}

// WithEnvProvider sets the environment provider.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithResolverLogger sets the logger for install progress.
func WithResolverLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithPlatform overrides the target platform.
func WithPlatform(goos, goarch string) ResolverOption {
	return func(r *Resolver) {
		r.goos = goos
		r.goarch = goarch
	}
}

// WithAutoDownload enables or disables installing ffmpeg when none is found.
// Default: enabled.
func WithAutoDownload(enabled bool) ResolverOption {
	return func(r *Resolver) { r.autoDownload = enabled }
}

// withBuild overrides the download descriptor (for testing).
func withBuild(info binaryInfo) ResolverOption {
	return func(r *Resolver) { r.build = &info }
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fs:           osFileSystem{},
		http:         defaultHTTPClient,
		env:          osEnvProvider{},
		log:          zerolog.Nop(),
		goos:         runtime.GOOS,
		goarch:       runtime.GOARCH,
		autoDownload: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the ffmpeg binary to use, in order of precedence:
//  1. FFMPEG_PATH (an error if set but missing)
//  2. ~/.go-videocut/bin/ffmpeg at the pinned version
//  3. ffmpeg on PATH
//  4. a fresh download into ~/.go-videocut/bin
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if p := r.env.Getenv(EnvPath); p != "" {
		if _, err := r.fs.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but the file does not exist",
				ErrNotFound, EnvPath, p)
		}
		return p, nil
	}

	installed, err := r.installedPath()
	if err != nil {
		return "", err
	}
	if r.isCurrent(installed) {
		return installed, nil
	}

	if p, err := r.env.LookPath("ffmpeg"); err == nil {
		return p, nil
	}

	if !r.autoDownload {
		return "", fmt.Errorf("%w\n\n%s", ErrNotFound, r.manualInstallInstructions())
	}

	r.log.Info().Str("version", ffmpegVersion).Str("dest", installed).Msg("ffmpeg not found, downloading")
	if err := r.install(ctx, installed); err != nil {
		return "", fmt.Errorf("%w: auto-download failed: %v\n\n%s",
			ErrNotFound, err, r.manualInstallInstructions())
	}
	return installed, nil
}

func (r *Resolver) installedPath() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	name := "ffmpeg"
	if r.goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(home, ".go-videocut", "bin", name), nil
}

// isCurrent reports whether the installed binary exists and matches the
// pinned version. A missing or stale version file forces a reinstall.
func (r *Resolver) isCurrent(binPath string) bool {
	if _, err := r.fs.Stat(binPath); err != nil {
		return false
	}
	data, err := r.fs.ReadFile(filepath.Join(filepath.Dir(binPath), versionFileName))
	return err == nil && string(data) == ffmpegVersion
}

func (r *Resolver) install(ctx context.Context, dest string) error {
	info, ok := platformInfo(r.goos, r.goarch)
	if r.build != nil {
		info, ok = *r.build, true
	}
	if !ok {
		return fmt.Errorf("%w: %s-%s", ErrUnsupportedPlatform, r.goos, r.goarch)
	}

	dir := filepath.Dir(dest)
	if err := r.fs.MkdirAll(dir, installDirPerm); err != nil {
		return fmt.Errorf("create install directory %s: %w", dir, err)
	}

	if err := r.fetch(ctx, info, dest); err != nil {
		_ = r.fs.Remove(dest)
		return err
	}

	if err := r.fs.WriteFile(filepath.Join(dir, versionFileName), []byte(ffmpegVersion), 0644); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	r.log.Info().Str("path", dest).Msg("ffmpeg installed")
	return nil
}

// fetch downloads the archive next to dest, verifies it, and unpacks it.
func (r *Resolver) fetch(ctx context.Context, info binaryInfo, dest string) error {
	tmp, err := r.fs.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpPath)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrDownloadFailed, resp.StatusCode, info.URL)
	}
	if _, err := tmp.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := verifyChecksum(tmpPath, info.SHA256); err != nil {
		return err
	}
	if err := decompressGzip(tmpPath, dest); err != nil {
		return err
	}
	if r.goos != "windows" {
		if err := r.fs.Chmod(dest, 0755); err != nil {
			return fmt.Errorf("make binary executable: %w", err)
		}
	}
	return nil
}

func (r *Resolver) manualInstallInstructions() string {
	var hint string
	switch r.goos {
	case "darwin":
		hint = "  brew install ffmpeg"
	case "linux":
		hint = "  Ubuntu/Debian: sudo apt install ffmpeg\n  Fedora:        sudo dnf install ffmpeg\n  Arch:          sudo pacman -S ffmpeg"
	case "windows":
		hint = "  winget install ffmpeg"
	default:
		hint = "  download from https://ffmpeg.org/download.html"
	}
	return fmt.Sprintf("To install ffmpeg manually:\n%s\n\nOr set %s to your ffmpeg binary.", hint, EnvPath)
}

// ---------------------------------------------------------------------------
// Version check
// ---------------------------------------------------------------------------

// CheckVersion runs "ffmpeg -version" and logs a warning when the major
// version is below the supported minimum. It returns the detected major
// version, or 0 when the banner cannot be parsed; it never fails the caller.
func CheckVersion(ctx context.Context, e *Executor, log zerolog.Logger) int {
	output, err := e.Run(ctx, []string{"-version"})
	if err != nil && output == "" {
		return 0
	}
	major := parseMajorVersion(output)
	if major > 0 && major < minMajorVersion {
		log.Warn().Int("version", major).Int("minimum", minMajorVersion).Msg("ffmpeg is older than supported")
	}
	return major
}

// parseMajorVersion reads "ffmpeg version 6.1.1 ..." or "ffmpeg version n6.1 ...".
func parseMajorVersion(banner string) int {
	first, _, _ := strings.Cut(banner, "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major
	}
	return 0
}
