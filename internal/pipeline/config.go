package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/alnah/go-videocut/internal/lang"
)

// Default processing parameters.
const (
	DefaultSilenceThresholdDB = -30.0
	DefaultMinSilence         = 0.5
	DefaultCutMargin          = 0.2
)

// Config is the per-run configuration snapshot. It is passed by value and
// validated once at the start of a run.
type Config struct {
	// SilenceThresholdDB is the noise floor in dBFS. It must be negative and
	// is passed to the silence detector verbatim.
	SilenceThresholdDB float64 `json:"silence_threshold_db"`

	// MinSilence is the shortest span, in seconds, counted as silence.
	MinSilence float64 `json:"min_silence"`

	// CutMargin pads speech on both sides of every cut, in seconds.
	CutMargin float64 `json:"cut_margin"`

	Enhance     bool   `json:"enhance"`
	CutSilences bool   `json:"cut_silences"`
	Language    string `json:"language,omitempty"`

	// Cleanup runs the language-cleanup pass when a cleaner is configured.
	Cleanup        bool          `json:"cleanup"`
	CleanupTimeout time.Duration `json:"cleanup_timeout"`
}

// DefaultConfig returns the defaults: -30 dB, 0.5 s, 0.2 s margin, enhance
// and cut enabled, auto-detected language, no cleanup.
func DefaultConfig() Config {
	return Config{
		SilenceThresholdDB: DefaultSilenceThresholdDB,
		MinSilence:         DefaultMinSilence,
		CutMargin:          DefaultCutMargin,
		Enhance:            true,
		CutSilences:        true,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case !finite(c.SilenceThresholdDB) || c.SilenceThresholdDB >= 0:
		return fmt.Errorf("%w: silence threshold must be a negative dBFS value, got %v",
			ErrInvalidConfig, c.SilenceThresholdDB)
	case !finite(c.MinSilence) || c.MinSilence <= 0:
		return fmt.Errorf("%w: minimum silence must be positive, got %v", ErrInvalidConfig, c.MinSilence)
	case !finite(c.CutMargin) || c.CutMargin < 0:
		return fmt.Errorf("%w: cut margin must be non-negative, got %v", ErrInvalidConfig, c.CutMargin)
	case c.CleanupTimeout < 0:
		return fmt.Errorf("%w: cleanup timeout must be non-negative, got %v", ErrInvalidConfig, c.CleanupTimeout)
	}
	if err := lang.Validate(c.Language); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
