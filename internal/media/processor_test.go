package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/logging"
)

// fakeRunner scripts one result per call and mimics the transcoder by
// creating the output file (always the final argument) on success.
type fakeRunner struct {
	calls   [][]string
	scripts []error
}

func (f *fakeRunner) Run(_ context.Context, args []string) error {
	idx := len(f.calls)
	f.calls = append(f.calls, append([]string(nil), args...))

	var err error
	if idx < len(f.scripts) {
		err = f.scripts[idx]
	}
	if err == nil {
		out := args[len(args)-1]
		if werr := os.WriteFile(out, []byte("payload"), 0o644); werr != nil {
			return werr
		}
	}
	return err
}

type fakeProber struct {
	res ffmpeg.ProbeResult
	err error
}

func (f *fakeProber) Probe(context.Context, string) (ffmpeg.ProbeResult, error) {
	return f.res, f.err
}

func newTestProcessor(t *testing.T, run *fakeRunner, probe Prober) *Processor {
	t.Helper()
	log, err := logging.New(filepath.Join(t.TempDir(), "errors.log"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	if probe == nil {
		probe = &fakeProber{}
	}
	opts := Options{WatermarkFontSize: 36, WatermarkColor: "white"}
	return NewProcessor(run, probe, opts, log)
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("input"), 0o644))
	return path
}

func commandFailed() error {
	return &ffmpeg.RunError{Args: []string{"-i", "in"}, Stderr: "boom", Err: errors.New("exit status 1")}
}

func TestCompress(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	out, err := p.Compress(context.Background(), in, dir, CompressParams{CRF: 23, Preset: "fast"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "compressed.mp4"), out)
	assert.FileExists(t, out)

	require.Len(t, run.calls, 1)
	assert.Contains(t, run.calls[0], "-crf")
	assert.Contains(t, run.calls[0], "23")
}

func TestCompress_InvalidCRFRejectedBeforeSpawn(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Compress(context.Background(), in, dir, CompressParams{CRF: 99, Preset: "fast"})
	assert.ErrorIs(t, err, ffmpeg.ErrInvalidArgument)
	assert.Empty(t, run.calls)
}

func TestMissingInputIsNotFound(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()

	_, err := p.Compress(context.Background(), filepath.Join(dir, "nope.mp4"), dir, CompressParams{CRF: 23, Preset: "fast"})
	assert.ErrorIs(t, err, ffmpeg.ErrNotFound)
	assert.Empty(t, run.calls)
}

func TestMerge_RequiresTwoInputs(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "only.mp4")

	for _, inputs := range [][]string{{}, {in}} {
		_, err := p.Merge(context.Background(), inputs, dir, MergeParams{CRF: 22})
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidArgument)
	}
	assert.Empty(t, run.calls)
	assert.NoFileExists(t, filepath.Join(dir, "concat_list.txt"))
}

func TestMerge_DescriptorWrittenThenRemoved(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	a := writeInput(t, dir, "a.mp4")
	b := writeInput(t, dir, "b.mp4")

	out, err := p.Merge(context.Background(), []string{a, b}, dir, MergeParams{CRF: 22})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "merged.mp4"), out)

	// The run saw a concat list with one line per input, in order.
	require.Len(t, run.calls, 1)
	listPath := argAfter(t, run.calls[0], "-i")
	assert.Equal(t, filepath.Join(dir, "concat_list.txt"), listPath)

	// Gone after completion.
	assert.NoFileExists(t, listPath)
}

func TestMerge_DescriptorRemovedOnFailure(t *testing.T) {
	run := &fakeRunner{scripts: []error{commandFailed()}}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	a := writeInput(t, dir, "a.mp4")
	b := writeInput(t, dir, "b.mp4")

	_, err := p.Merge(context.Background(), []string{a, b}, dir, MergeParams{CRF: 22})
	require.Error(t, err)

	var runErr *ffmpeg.RunError
	assert.ErrorAs(t, err, &runErr)
	assert.NoFileExists(t, filepath.Join(dir, "concat_list.txt"))
}

func TestTrim_FallsBackToReencode(t *testing.T) {
	run := &fakeRunner{scripts: []error{commandFailed(), nil}}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	out, err := p.Trim(context.Background(), in, dir, TrimParams{Start: "00:00:01", End: "00:00:05"})
	require.NoError(t, err)
	assert.FileExists(t, out)

	require.Len(t, run.calls, 2)
	assert.Contains(t, run.calls[0], "copy")
	assert.Contains(t, run.calls[1], "libx264")
}

func TestTrim_NoFallbackOnTimeout(t *testing.T) {
	timeout := fmt.Errorf("%w after 10m", ffmpeg.ErrTimeout)
	run := &fakeRunner{scripts: []error{timeout}}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Trim(context.Background(), in, dir, TrimParams{Start: "0", End: "5"})
	assert.ErrorIs(t, err, ffmpeg.ErrTimeout)
	assert.Len(t, run.calls, 1, "timeout must not trigger the re-encode candidate")
}

func TestTrim_SecondFailureSurfaces(t *testing.T) {
	run := &fakeRunner{scripts: []error{commandFailed(), commandFailed()}}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Trim(context.Background(), in, dir, TrimParams{Start: "0", End: "5"})
	require.Error(t, err)
	assert.Len(t, run.calls, 2)
}

func TestReplaceAudio_FallsBackToReencode(t *testing.T) {
	run := &fakeRunner{scripts: []error{commandFailed(), nil}}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	video := writeInput(t, dir, "video.mp4")
	audio := writeInput(t, dir, "audio.mp3")

	out, err := p.ReplaceAudio(context.Background(), video, audio, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "replaced_audio.mp4"), out)

	require.Len(t, run.calls, 2)
	assert.NotContains(t, run.calls[0], "aac")
	assert.Contains(t, run.calls[1], "aac")
	for _, call := range run.calls {
		assert.Contains(t, call, "-shortest")
	}
}

func TestRotate_RejectsBadAngleBeforeSpawn(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Rotate(context.Background(), in, dir, RotateParams{Degrees: 45})
	assert.ErrorIs(t, err, ffmpeg.ErrInvalidArgument)
	assert.Empty(t, run.calls)
}

func TestSpeed_RejectsNonPositiveFactorBeforeSpawn(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	for _, factor := range []float64{0, -2} {
		_, err := p.Speed(context.Background(), in, dir, SpeedParams{Factor: factor})
		assert.ErrorIs(t, err, ffmpeg.ErrInvalidArgument)
	}
	assert.Empty(t, run.calls)
}

func TestSpeed(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	out, err := p.Speed(context.Background(), in, dir, SpeedParams{Factor: 2})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "speed.mp4"), out)

	require.Len(t, run.calls, 1)
	assert.Contains(t, run.calls[0], "-filter_complex")
}

func TestStaticWatermark_DefaultsApplied(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	p.opts.FontFile = "/fonts/impact.ttf"
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.StaticWatermark(context.Background(), in, dir, WatermarkParams{Text: "demo"})
	require.NoError(t, err)

	require.Len(t, run.calls, 1)
	vf := argAfter(t, run.calls[0], "-vf")
	assert.Contains(t, vf, "fontcolor=white")
	assert.Contains(t, vf, "fontsize=36")
	assert.Contains(t, vf, "fontfile=/fonts/impact.ttf")
}

func TestExtractAudio(t *testing.T) {
	run := &fakeRunner{}
	p := newTestProcessor(t, run, nil)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	out, err := p.ExtractAudio(context.Background(), in, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audio.mp3"), out)
}

func TestThumbnail_ClampsSeekToClipLength(t *testing.T) {
	run := &fakeRunner{}
	probe := &fakeProber{res: ffmpeg.ProbeResult{DurationSeconds: 2.0, HasVideo: true}}
	p := newTestProcessor(t, run, probe)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Thumbnail(context.Background(), in, dir, ThumbnailParams{Timestamp: "00:00:03"})
	require.NoError(t, err)

	require.Len(t, run.calls, 1)
	assert.Equal(t, "1.90", argAfter(t, run.calls[0], "-ss"))
}

func TestThumbnail_InRangeSeekUntouched(t *testing.T) {
	run := &fakeRunner{}
	probe := &fakeProber{res: ffmpeg.ProbeResult{DurationSeconds: 30, HasVideo: true}}
	p := newTestProcessor(t, run, probe)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Thumbnail(context.Background(), in, dir, ThumbnailParams{Timestamp: "00:00:03"})
	require.NoError(t, err)
	assert.Equal(t, "00:00:03", argAfter(t, run.calls[0], "-ss"))
}

func TestThumbnail_ProbeFailurePassesThrough(t *testing.T) {
	run := &fakeRunner{}
	probe := &fakeProber{err: errors.New("probe broken")}
	p := newTestProcessor(t, run, probe)
	dir := t.TempDir()
	in := writeInput(t, dir, "in.mp4")

	_, err := p.Thumbnail(context.Background(), in, dir, ThumbnailParams{Timestamp: "00:00:03"})
	require.NoError(t, err)
	assert.Equal(t, "00:00:03", argAfter(t, run.calls[0], "-ss"))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "5", want: 5},
		{in: "3.5", want: 3.5},
		{in: "01:30", want: 90},
		{in: "01:02:03", want: 3723},
		{in: "00:00:03.5", want: 3.5},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestVerifyOutput_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp4")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	err := verifyOutput(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
