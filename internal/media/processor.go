// Package media is the catalog of supported transformations. Each operation
// validates its parameters, stages what it needs inside the job workspace,
// sequences builder output through the runner and hands back the produced
// file. Fallback policy (trim, replace-audio) lives here, not in the runner.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/logging"
)

// Runner executes one built argument list as a child process.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Prober reads media metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.ProbeResult, error)
}

// Options carries the watermark defaults injected from configuration.
type Options struct {
	FontFile          string
	WatermarkFontSize int
	WatermarkColor    string
}

// Processor sequences builder and runner for every supported operation.
type Processor struct {
	run      Runner
	probe    Prober
	opts     Options
	validate *validator.Validate
	log      *logging.Logger
}

func NewProcessor(run Runner, probe Prober, opts Options, log *logging.Logger) *Processor {
	if opts.WatermarkFontSize <= 0 {
		opts.WatermarkFontSize = 36
	}
	if opts.WatermarkColor == "" {
		opts.WatermarkColor = "white"
	}
	return &Processor{
		run:      run,
		probe:    probe,
		opts:     opts,
		validate: validator.New(),
		log:      log,
	}
}

type CompressParams struct {
	CRF    int    `validate:"min=0,max=51"`
	Preset string `validate:"required"`
}

type MergeParams struct {
	CRF int `validate:"min=0,max=51"`
}

type WatermarkParams struct {
	Text     string `validate:"required"`
	Color    string
	FontSize int
	Position string
}

type MovingWatermarkParams struct {
	Text string `validate:"required"`
	Mode string
}

type TrimParams struct {
	Start string `validate:"required"`
	End   string `validate:"required"`
}

type ResizeParams struct {
	Height int `validate:"min=1"`
}

type ThumbnailParams struct {
	Timestamp string `validate:"required"`
}

type SpeedParams struct {
	Factor float64 `validate:"gt=0"`
}

type RotateParams struct {
	Degrees int `validate:"oneof=90 180 270"`
}

// Compress re-encodes the video at the requested quality.
func (p *Processor) Compress(ctx context.Context, in, dir string, params CompressParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}
	out := filepath.Join(dir, "compressed.mp4")
	if err := p.run.Run(ctx, ffmpeg.BuildCompress(in, out, params.CRF, params.Preset)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// Merge concatenates two or more videos, re-encoding so mixed codecs still
// fit together. The concat descriptor is staged in the workspace and removed
// once the run finishes, success or failure.
func (p *Processor) Merge(ctx context.Context, inputs []string, dir string, params MergeParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if len(inputs) < 2 {
		return "", fmt.Errorf("%w: merge needs at least 2 videos, got %d", ffmpeg.ErrInvalidArgument, len(inputs))
	}
	if err := requireInputs(inputs...); err != nil {
		return "", err
	}

	listPath, err := ffmpeg.WriteConcatList(dir, inputs)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(listPath); err != nil && !os.IsNotExist(err) {
			p.log.Warnf("media: remove concat list %s: %v", listPath, err)
		}
	}()

	out := filepath.Join(dir, "merged.mp4")
	if err := p.run.Run(ctx, ffmpeg.BuildConcat(listPath, out, params.CRF)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// StaticWatermark overlays text at a fixed position. Color and font size fall
// back to the configured defaults when unset.
func (p *Processor) StaticWatermark(ctx context.Context, in, dir string, params WatermarkParams) (string, error) {
	if params.Color == "" {
		params.Color = p.opts.WatermarkColor
	}
	if params.FontSize <= 0 {
		params.FontSize = p.opts.WatermarkFontSize
	}
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	style := ffmpeg.TextStyle{
		Text:     params.Text,
		Color:    params.Color,
		FontSize: params.FontSize,
		FontFile: p.opts.FontFile,
	}
	out := filepath.Join(dir, "watermarked.mp4")
	if err := p.run.Run(ctx, ffmpeg.BuildStaticWatermark(in, out, style, params.Position)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// MovingWatermark overlays text sweeping across the frame.
func (p *Processor) MovingWatermark(ctx context.Context, in, dir string, params MovingWatermarkParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	style := ffmpeg.TextStyle{
		Text:     params.Text,
		Color:    p.opts.WatermarkColor,
		FontSize: p.opts.WatermarkFontSize,
		FontFile: p.opts.FontFile,
	}
	out := filepath.Join(dir, "moving_wm.mp4")
	if err := p.run.Run(ctx, ffmpeg.BuildMovingWatermark(in, out, style, params.Mode)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// Trim cuts between two timestamps. Stream copy first; if the transcoder
// rejects that, one re-encode attempt. Timeouts surface directly.
func (p *Processor) Trim(ctx context.Context, in, dir string, params TrimParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	out := filepath.Join(dir, "trimmed.mp4")
	err := p.run.Run(ctx, ffmpeg.BuildTrimCopy(in, out, params.Start, params.End))
	if err != nil {
		var runErr *ffmpeg.RunError
		if !errors.As(err, &runErr) {
			return "", err
		}
		p.log.Warnf("media: stream-copy trim failed, retrying with re-encode")
		if err := p.run.Run(ctx, ffmpeg.BuildTrimReencode(in, out, params.Start, params.End)); err != nil {
			return "", err
		}
	}
	return out, verifyOutput(out)
}

// Resize scales the video to the requested height, preserving aspect ratio.
func (p *Processor) Resize(ctx context.Context, in, dir string, params ResizeParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}
	out := filepath.Join(dir, "resized.mp4")
	if err := p.run.Run(ctx, ffmpeg.BuildResize(in, out, params.Height)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// ExtractAudio pulls the audio track out as mp3.
func (p *Processor) ExtractAudio(ctx context.Context, in, dir string) (string, error) {
	if err := requireInputs(in); err != nil {
		return "", err
	}
	out := filepath.Join(dir, "audio.mp3")
	if err := p.run.Run(ctx, ffmpeg.BuildExtractAudio(in, out)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// Thumbnail grabs one frame. The requested timestamp is clamped to the
// probed clip length so seeking past the end cannot produce an empty grab.
func (p *Processor) Thumbnail(ctx context.Context, in, dir string, params ThumbnailParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	ts := p.clampTimestamp(ctx, in, params.Timestamp)
	out := filepath.Join(dir, "thumb.jpg")
	if err := p.run.Run(ctx, ffmpeg.BuildThumbnail(in, out, ts)); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// ReplaceAudio muxes a new audio track onto the video. Audio copy first; if
// the container rejects the codec, one attempt with the audio re-encoded.
func (p *Processor) ReplaceAudio(ctx context.Context, video, audio, dir string) (string, error) {
	if err := requireInputs(video, audio); err != nil {
		return "", err
	}

	out := filepath.Join(dir, "replaced_audio.mp4")
	err := p.run.Run(ctx, ffmpeg.BuildReplaceAudioCopy(video, audio, out))
	if err != nil {
		var runErr *ffmpeg.RunError
		if !errors.As(err, &runErr) {
			return "", err
		}
		p.log.Warnf("media: audio copy mux failed, retrying with re-encode")
		if err := p.run.Run(ctx, ffmpeg.BuildReplaceAudioReencode(video, audio, out)); err != nil {
			return "", err
		}
	}
	return out, verifyOutput(out)
}

// Speed changes playback speed; the factor is validated before any spawn.
func (p *Processor) Speed(ctx context.Context, in, dir string, params SpeedParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	out := filepath.Join(dir, "speed.mp4")
	args, err := ffmpeg.BuildSpeed(in, out, params.Factor)
	if err != nil {
		return "", err
	}
	if err := p.run.Run(ctx, args); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// Rotate turns the frame by a quarter-turn multiple.
func (p *Processor) Rotate(ctx context.Context, in, dir string, params RotateParams) (string, error) {
	if err := p.checkParams(params); err != nil {
		return "", err
	}
	if err := requireInputs(in); err != nil {
		return "", err
	}

	out := filepath.Join(dir, "rotated.mp4")
	args, err := ffmpeg.BuildRotate(in, out, params.Degrees)
	if err != nil {
		return "", err
	}
	if err := p.run.Run(ctx, args); err != nil {
		return "", err
	}
	return out, verifyOutput(out)
}

// Describe probes a file for the bot's captions. Failures are soft: the
// caption just goes without metadata.
func (p *Processor) Describe(ctx context.Context, path string) (ffmpeg.ProbeResult, error) {
	return p.probe.Probe(ctx, path)
}

func (p *Processor) checkParams(v any) error {
	if err := p.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ffmpeg.ErrInvalidArgument, err)
	}
	return nil
}

// clampTimestamp keeps a thumbnail seek inside the clip. Unparseable
// timestamps and probe failures pass through untouched; the transcoder has
// the last word.
func (p *Processor) clampTimestamp(ctx context.Context, in, ts string) string {
	sec, err := parseTimestamp(ts)
	if err != nil {
		return ts
	}
	res, err := p.probe.Probe(ctx, in)
	if err != nil || res.DurationSeconds <= 0 {
		if err != nil {
			p.log.Warnf("media: probe %s failed, thumbnail seek not clamped: %v", in, err)
		}
		return ts
	}

	limit := res.DurationSeconds - 0.1
	if limit < 0 {
		limit = 0
	}
	if sec <= limit {
		return ts
	}
	clamped := strconv.FormatFloat(limit, 'f', 2, 64)
	p.log.Infof("media: thumbnail seek %s beyond clip end (%.2fs), clamped to %s", ts, res.DurationSeconds, clamped)
	return clamped
}

func requireInputs(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ffmpeg.ErrNotFound, path)
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return nil
}

func verifyOutput(out string) error {
	info, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("output not produced: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file %s is empty", out)
	}
	return nil
}
