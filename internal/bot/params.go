package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
)

const (
	defaultCRF     = 23
	defaultPreset  = "fast"
	defaultThumbTS = "00:00:03"
)

var x264Presets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

var timestampRe = regexp.MustCompile(`^\d{1,2}(:\d{1,2}){0,2}(\.\d+)?$`)

// parseCompressParams reads an optional "CRF PRESET" caption.
func parseCompressParams(caption string) (media.CompressParams, error) {
	p := media.CompressParams{CRF: defaultCRF, Preset: defaultPreset}

	fields := strings.Fields(caption)
	if len(fields) > 2 {
		return p, fmt.Errorf("%w: compress takes CRF and PRESET, e.g. \"23 fast\"", ffmpeg.ErrInvalidArgument)
	}
	if len(fields) >= 1 {
		crf, err := strconv.Atoi(fields[0])
		if err != nil {
			return p, fmt.Errorf("%w: CRF must be a number 0-51, got %q", ffmpeg.ErrInvalidArgument, fields[0])
		}
		p.CRF = crf
	}
	if len(fields) == 2 {
		preset := strings.ToLower(fields[1])
		if !x264Presets[preset] {
			return p, fmt.Errorf("%w: unknown preset %q", ffmpeg.ErrInvalidArgument, fields[1])
		}
		p.Preset = preset
	}
	return p, nil
}

// parseWatermarkParams reads a "TEXT | COLOR | SIZE | POSITION" caption.
// Only TEXT is required; unset fields keep the configured defaults.
func parseWatermarkParams(caption string) (media.WatermarkParams, error) {
	parts := splitPipe(caption)
	var p media.WatermarkParams
	if len(parts) == 0 || parts[0] == "" {
		return p, fmt.Errorf("%w: watermark needs a caption: TEXT | COLOR | SIZE | POSITION", ffmpeg.ErrInvalidArgument)
	}
	if len(parts) > 4 {
		return p, fmt.Errorf("%w: too many fields, expected TEXT | COLOR | SIZE | POSITION", ffmpeg.ErrInvalidArgument)
	}

	p.Text = parts[0]
	if len(parts) >= 2 {
		p.Color = parts[1]
	}
	if len(parts) >= 3 && parts[2] != "" {
		size, err := strconv.Atoi(parts[2])
		if err != nil || size <= 0 {
			return p, fmt.Errorf("%w: SIZE must be a positive number, got %q", ffmpeg.ErrInvalidArgument, parts[2])
		}
		p.FontSize = size
	}
	if len(parts) == 4 {
		p.Position = strings.ToLower(parts[3])
	}
	return p, nil
}

// parseMovingWatermarkParams reads a "TEXT | MODE" caption.
func parseMovingWatermarkParams(caption string) (media.MovingWatermarkParams, error) {
	parts := splitPipe(caption)
	var p media.MovingWatermarkParams
	if len(parts) == 0 || parts[0] == "" {
		return p, fmt.Errorf("%w: moving watermark needs a caption: TEXT | MODE", ffmpeg.ErrInvalidArgument)
	}
	if len(parts) > 2 {
		return p, fmt.Errorf("%w: too many fields, expected TEXT | MODE", ffmpeg.ErrInvalidArgument)
	}

	p.Text = parts[0]
	if len(parts) == 2 {
		p.Mode = strings.ToLower(parts[1])
	}
	return p, nil
}

// parseTrimParams reads a "START END" caption, timestamps as [HH:][MM:]SS.
func parseTrimParams(caption string) (media.TrimParams, error) {
	var p media.TrimParams
	fields := strings.Fields(caption)
	if len(fields) != 2 {
		return p, fmt.Errorf("%w: trim needs START and END, e.g. \"00:00:05 00:00:15\"", ffmpeg.ErrInvalidArgument)
	}
	for _, ts := range fields {
		if !timestampRe.MatchString(ts) {
			return p, fmt.Errorf("%w: bad timestamp %q, use [HH:][MM:]SS", ffmpeg.ErrInvalidArgument, ts)
		}
	}
	p.Start, p.End = fields[0], fields[1]
	return p, nil
}

// parseResizeParams reads a "HEIGHT" caption.
func parseResizeParams(caption string) (media.ResizeParams, error) {
	var p media.ResizeParams
	field := strings.TrimSpace(caption)
	if field == "" {
		return p, fmt.Errorf("%w: resize needs a target HEIGHT, e.g. \"480\"", ffmpeg.ErrInvalidArgument)
	}
	height, err := strconv.Atoi(field)
	if err != nil || height <= 0 {
		return p, fmt.Errorf("%w: HEIGHT must be a positive number, got %q", ffmpeg.ErrInvalidArgument, field)
	}
	p.Height = height
	return p, nil
}

// parseSpeedParams reads a "FACTOR" caption.
func parseSpeedParams(caption string) (media.SpeedParams, error) {
	var p media.SpeedParams
	field := strings.TrimSpace(caption)
	if field == "" {
		return p, fmt.Errorf("%w: speed needs a FACTOR, e.g. \"2\" or \"0.5\"", ffmpeg.ErrInvalidArgument)
	}
	factor, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return p, fmt.Errorf("%w: FACTOR must be a number, got %q", ffmpeg.ErrInvalidArgument, field)
	}
	p.Factor = factor
	return p, nil
}

// parseRotateParams reads a "DEGREES" caption.
func parseRotateParams(caption string) (media.RotateParams, error) {
	var p media.RotateParams
	field := strings.TrimSpace(caption)
	if field == "" {
		return p, fmt.Errorf("%w: rotate needs DEGREES: 90, 180 or 270", ffmpeg.ErrInvalidArgument)
	}
	degrees, err := strconv.Atoi(field)
	if err != nil {
		return p, fmt.Errorf("%w: DEGREES must be 90, 180 or 270, got %q", ffmpeg.ErrInvalidArgument, field)
	}
	p.Degrees = degrees
	return p, nil
}

// parseThumbnailParams reads an optional "TIMESTAMP" caption.
func parseThumbnailParams(caption string) (media.ThumbnailParams, error) {
	p := media.ThumbnailParams{Timestamp: defaultThumbTS}
	field := strings.TrimSpace(caption)
	if field == "" {
		return p, nil
	}
	if !timestampRe.MatchString(field) {
		return p, fmt.Errorf("%w: bad timestamp %q, use [HH:][MM:]SS", ffmpeg.ErrInvalidArgument, field)
	}
	p.Timestamp = field
	return p, nil
}

// splitPipe splits "a | b | c" captions and trims each field.
func splitPipe(caption string) []string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil
	}
	parts := strings.Split(caption, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
