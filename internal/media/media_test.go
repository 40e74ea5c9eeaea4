package media_test

// Notes:
// - The transcoder is exercised through a recording mock runner; no ffmpeg needed
// - Log fixtures mirror real silencedetect and input banner output

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-videocut/internal/ffmpeg"
	"github.com/alnah/go-videocut/internal/media"
	"github.com/alnah/go-videocut/internal/timeline"
)

// ---------------------------------------------------------------------------
// Mock runner
// ---------------------------------------------------------------------------

type call struct {
	args  []string
	total float64
}

type mockRunner struct {
	output    string
	err       error
	progress  []float64
	calls     []call
	cancelCtx context.CancelFunc
}

var _ media.Runner = (*mockRunner)(nil)

func (m *mockRunner) Run(_ context.Context, args []string) (string, error) {
	m.calls = append(m.calls, call{args: args})
	if m.cancelCtx != nil {
		m.cancelCtx()
	}
	return m.output, m.err
}

func (m *mockRunner) RunProgress(_ context.Context, args []string, total float64, report ffmpeg.ProgressFunc) error {
	m.calls = append(m.calls, call{args: args, total: total})
	for _, p := range m.progress {
		if report != nil {
			report(p)
		}
	}
	return m.err
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

const bannerFixture = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'talk.mp4':
  Duration: 00:01:05.43, start: 0.000000, bitrate: 1205 kb/s
  Stream #0:0(und): Video: h264 (High)
`

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

func TestSilenceDetectFilter(t *testing.T) {
	t.Parallel()

	if got, want := media.SilenceDetectFilter(-30, 0.5), "silencedetect=noise=-30dB:d=0.5"; got != want {
		t.Errorf("SilenceDetectFilter() = %q, want %q", got, want)
	}
	if got, want := media.SilenceDetectFilter(-42.5, 1), "silencedetect=noise=-42.5dB:d=1"; got != want {
		t.Errorf("SilenceDetectFilter() = %q, want %q", got, want)
	}
}

func TestSelectFilters(t *testing.T) {
	t.Parallel()

	keep := []timeline.Interval{{Start: 0, End: 2.2}, {Start: 2.8, End: 10}}

	if got, want := media.SelectExpr(keep), "between(t,0,2.2)+between(t,2.8,10)"; got != want {
		t.Errorf("SelectExpr() = %q, want %q", got, want)
	}
	if got, want := media.VideoSelectFilter(keep),
		"select='between(t,0,2.2)+between(t,2.8,10)',setpts=N/FRAME_RATE/TB"; got != want {
		t.Errorf("VideoSelectFilter() = %q, want %q", got, want)
	}
	if got, want := media.AudioSelectFilter(keep, false),
		"aselect='between(t,0,2.2)+between(t,2.8,10)',asetpts=N/SR/TB"; got != want {
		t.Errorf("AudioSelectFilter(enhance=false) = %q, want %q", got, want)
	}
	if got := media.AudioSelectFilter(keep, true); !strings.HasSuffix(got, ","+media.EnhanceFilter) {
		t.Errorf("AudioSelectFilter(enhance=true) = %q, want enhancement chain appended", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{0: "0", 2.2: "2.2", 10: "10", 1.0 / 3: "0.3333333333333333", -30: "-30"}
	for in, want := range tests {
		if got := media.FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Log parsing
// ---------------------------------------------------------------------------

func TestParseSilences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		output   string
		duration float64
		want     []timeline.Interval
	}{
		{
			name: "paired markers",
			output: `[silencedetect @ 0x7f] silence_start: 2
[silencedetect @ 0x7f] silence_end: 3 | silence_duration: 1
[silencedetect @ 0x7f] silence_start: 5.0
[silencedetect @ 0x7f] silence_end: 5.4 | silence_duration: 0.4`,
			want: []timeline.Interval{{Start: 2, End: 3}, {Start: 5, End: 5.4}},
		},
		{
			name:   "no silences",
			output: "size=N/A time=00:00:10.00 bitrate=N/A",
			want:   nil,
		},
		{
			name:   "end without start ignored",
			output: "silence_end: 1.5 | silence_duration: 1.5\nsilence_start: 4\nsilence_end: 6",
			want:   []timeline.Interval{{Start: 4, End: 6}},
		},
		{
			name:     "open start closed at duration",
			output:   "silence_start: 8.25",
			duration: 10,
			want:     []timeline.Interval{{Start: 8.25, End: 10}},
		},
		{
			name:   "open start without duration dropped",
			output: "silence_start: 8.25",
			want:   nil,
		},
		{
			name:   "negative start clamped",
			output: "silence_start: -0.0213\nsilence_end: 1.2",
			want:   []timeline.Interval{{Start: 0, End: 1.2}},
		},
		{
			name:   "later start replaces pending start",
			output: "silence_start: 1\nsilence_start: 2\nsilence_end: 3",
			want:   []timeline.Interval{{Start: 2, End: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := media.ParseSilences(tt.output, tt.duration)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSilences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{name: "centiseconds", output: bannerFixture, want: 65.43},
		{name: "hours", output: "Duration: 01:02:03.5,", want: 3723.5},
		{name: "microseconds", output: "Duration: 00:00:01.000250", want: 1.00025},
		{name: "missing", output: "Duration: N/A, bitrate: N/A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := media.ParseDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDuration() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration() unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// FFmpeg transcoder
// ---------------------------------------------------------------------------

func TestFFmpeg_Probe(t *testing.T) {
	t.Parallel()

	t.Run("parses banner", func(t *testing.T) {
		t.Parallel()
		r := &mockRunner{output: bannerFixture}
		got, err := media.NewFFmpeg(r).Probe(context.Background(), "talk.mp4")
		if err != nil {
			t.Fatalf("Probe() unexpected error: %v", err)
		}
		if math.Abs(got-65.43) > 1e-9 {
			t.Errorf("Probe() = %v, want 65.43", got)
		}
		if argValue(r.calls[0].args, "-i") != "talk.mp4" {
			t.Errorf("Probe() args = %v", r.calls[0].args)
		}
	})

	t.Run("unparseable output fails", func(t *testing.T) {
		t.Parallel()
		r := &mockRunner{output: "talk.mp4: No such file or directory", err: errors.New("exit status 1")}
		_, err := media.NewFFmpeg(r).Probe(context.Background(), "talk.mp4")
		if !errors.Is(err, media.ErrTranscoderFailed) {
			t.Fatalf("Probe() error = %v, want ErrTranscoderFailed", err)
		}
		if !strings.Contains(err.Error(), "No such file") {
			t.Errorf("Probe() error lacks ffmpeg output: %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		r := &mockRunner{err: errors.New("signal: killed"), cancelCtx: cancel}
		_, err := media.NewFFmpeg(r).Probe(ctx, "talk.mp4")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Probe() error = %v, want context.Canceled", err)
		}
	})
}

func TestFFmpeg_DetectSilences(t *testing.T) {
	t.Parallel()

	r := &mockRunner{output: bannerFixture + "silence_start: 2\nsilence_end: 3\nsilence_start: 64\n"}
	got, err := media.NewFFmpeg(r).DetectSilences(context.Background(), "talk.mp4", -30, 0.5)
	if err != nil {
		t.Fatalf("DetectSilences() unexpected error: %v", err)
	}
	duration, _ := media.ParseDuration(bannerFixture)
	want := []timeline.Interval{{Start: 2, End: 3}, {Start: 64, End: duration}}
	if !slices.Equal(got, want) {
		t.Errorf("DetectSilences() = %v, want %v", got, want)
	}
	if af := argValue(r.calls[0].args, "-af"); af != "silencedetect=noise=-30dB:d=0.5" {
		t.Errorf("filter = %q", af)
	}

	failing := &mockRunner{output: "Invalid data found", err: errors.New("exit status 1")}
	if _, err := media.NewFFmpeg(failing).DetectSilences(context.Background(), "x", -30, 0.5); !errors.Is(err, media.ErrTranscoderFailed) {
		t.Errorf("DetectSilences() error = %v, want ErrTranscoderFailed", err)
	}
}

func TestFFmpeg_ExtractPCM(t *testing.T) {
	t.Parallel()

	r := &mockRunner{}
	err := media.NewFFmpeg(r).ExtractPCM(context.Background(), "talk.mp4", "talk.mp4.pcm", media.SpeechSampleRate, media.SpeechChannels)
	if err != nil {
		t.Fatalf("ExtractPCM() unexpected error: %v", err)
	}
	want := []string{"-i", "talk.mp4", "-ar", "16000", "-ac", "1", "-f", "f32le", "-acodec", "pcm_f32le", "-y", "talk.mp4.pcm"}
	if !slices.Equal(r.calls[0].args, want) {
		t.Errorf("ExtractPCM() args = %v, want %v", r.calls[0].args, want)
	}
}

func TestFFmpeg_CutAndExport(t *testing.T) {
	t.Parallel()

	keep := []timeline.Interval{{Start: 0, End: 2.2}, {Start: 2.8, End: 10}}
	r := &mockRunner{progress: []float64{0.5, 1}}

	var reported []float64
	tc := media.NewFFmpeg(r, media.WithVideoCodec("libx264"))
	err := tc.CutAndExport(context.Background(), "in.mp4", "in_edited.mp4", keep, true, func(f float64) {
		reported = append(reported, f)
	})
	if err != nil {
		t.Fatalf("CutAndExport() unexpected error: %v", err)
	}

	c := r.calls[0]
	if math.Abs(c.total-9.4) > 1e-9 {
		t.Errorf("progress total = %v, want edited duration 9.4", c.total)
	}
	if got := argValue(c.args, "-c:v"); got != "libx264" {
		t.Errorf("-c:v = %q, want libx264", got)
	}
	if got := argValue(c.args, "-vf"); got != media.VideoSelectFilter(keep) {
		t.Errorf("-vf = %q", got)
	}
	if got := argValue(c.args, "-af"); got != media.AudioSelectFilter(keep, true) {
		t.Errorf("-af = %q", got)
	}
	for flag, want := range map[string]string{"-c:a": "aac", "-b:a": "192k", "-ar": "44100", "-movflags": "+faststart", "-pix_fmt": "yuv420p"} {
		if got := argValue(c.args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if c.args[len(c.args)-1] != "in_edited.mp4" {
		t.Errorf("output = %q, want last argument", c.args[len(c.args)-1])
	}
	if !slices.Equal(reported, []float64{0.5, 1}) {
		t.Errorf("reported = %v", reported)
	}
}

func TestFFmpeg_CutAndExport_Errors(t *testing.T) {
	t.Parallel()

	tc := media.NewFFmpeg(&mockRunner{})
	if err := tc.CutAndExport(context.Background(), "in", "out", nil, false, nil); !errors.Is(err, media.ErrNoKeepRanges) {
		t.Errorf("CutAndExport(nil keep) error = %v, want ErrNoKeepRanges", err)
	}

	failing := media.NewFFmpeg(&mockRunner{err: errors.New("exit status 1")})
	keep := []timeline.Interval{{Start: 0, End: 1}}
	if err := failing.CutAndExport(context.Background(), "in", "out", keep, false, nil); !errors.Is(err, media.ErrTranscoderFailed) {
		t.Errorf("CutAndExport() error = %v, want ErrTranscoderFailed", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled := media.NewFFmpeg(&mockRunner{err: context.Canceled})
	if err := canceled.CutAndExport(ctx, "in", "out", keep, false, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("CutAndExport() error = %v, want context.Canceled", err)
	}
}

func TestFFmpeg_EnhanceMuxCopy(t *testing.T) {
	t.Parallel()

	r := &mockRunner{}
	tc := media.NewFFmpeg(r)
	ctx := context.Background()

	if err := tc.EnhanceAudio(ctx, "in.mp4", "in.mp4.enhanced.aac"); err != nil {
		t.Fatalf("EnhanceAudio() unexpected error: %v", err)
	}
	if err := tc.Mux(ctx, "in.mp4", "in.mp4.enhanced.aac", "in_edited.mp4"); err != nil {
		t.Fatalf("Mux() unexpected error: %v", err)
	}
	if err := tc.Copy(ctx, "in.mp4", "in_edited.mp4"); err != nil {
		t.Fatalf("Copy() unexpected error: %v", err)
	}

	enhance, mux, cp := r.calls[0].args, r.calls[1].args, r.calls[2].args
	if argValue(enhance, "-af") != media.EnhanceFilter || !slices.Contains(enhance, "-vn") {
		t.Errorf("EnhanceAudio() args = %v", enhance)
	}
	if argValue(mux, "-c") != "copy" || !slices.Contains(mux, "1:a:0") {
		t.Errorf("Mux() args = %v", mux)
	}
	if argValue(cp, "-c:v") != "copy" || argValue(cp, "-c:a") != "aac" || argValue(cp, "-movflags") != "+faststart" {
		t.Errorf("Copy() args = %v", cp)
	}

	failing := media.NewFFmpeg(&mockRunner{output: "boom", err: errors.New("exit status 1")})
	if err := failing.Copy(ctx, "in", "out"); !errors.Is(err, media.ErrTranscoderFailed) {
		t.Errorf("Copy() error = %v, want ErrTranscoderFailed", err)
	}
}

func TestDefaultVideoCodec(t *testing.T) {
	t.Parallel()

	got := media.DefaultVideoCodec()
	if got != "libx264" && got != "h264_videotoolbox" {
		t.Errorf("DefaultVideoCodec() = %q", got)
	}
	r := &mockRunner{}
	_ = media.NewFFmpeg(r, media.WithVideoCodec("")).CutAndExport(context.Background(), "in", "out",
		[]timeline.Interval{{Start: 0, End: 1}}, false, nil)
	if argValue(r.calls[0].args, "-c:v") != got {
		t.Errorf("empty WithVideoCodec should keep the default")
	}
}

// ---------------------------------------------------------------------------
// PCM
// ---------------------------------------------------------------------------

func TestReadPCM(t *testing.T) {
	t.Parallel()

	want := []float32{0, 0.5, -1, 0.25}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, want); err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := media.ReadPCM(&buf)
	if err != nil {
		t.Fatalf("ReadPCM() unexpected error: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("ReadPCM() = %v, want %v", got, want)
	}

	if _, err := media.ReadPCM(bytes.NewReader([]byte{1, 2, 3})); !errors.Is(err, media.ErrInvalidPCM) {
		t.Errorf("ReadPCM(3 bytes) error = %v, want ErrInvalidPCM", err)
	}
}

func TestReadPCMFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.mp4.pcm")
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, []float32{0.1, 0.2})
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := media.ReadPCMFile(path)
	if err != nil || len(got) != 2 {
		t.Errorf("ReadPCMFile() = %v, %v; want 2 samples", got, err)
	}
	if _, err := media.ReadPCMFile(filepath.Join(t.TempDir(), "missing.pcm")); err == nil {
		t.Error("ReadPCMFile(missing) error = nil, want error")
	}
}
