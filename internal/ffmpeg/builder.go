// Package ffmpeg builds and runs transcoder command lines.
//
// Builders are pure: each maps operation parameters to the exact argument
// list for one ffmpeg invocation and never touches the filesystem. The one
// sanctioned exception is WriteConcatList, which stages the concat demuxer's
// list descriptor for a merge.
package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TextStyle carries the drawtext appearance knobs shared by both watermark
// operations. FontFile is optional.
type TextStyle struct {
	Text     string
	Color    string
	FontSize int
	FontFile string
}

// BuildCompress re-encodes video at the requested quality and preset, with
// audio re-encoded at a fixed bitrate.
func BuildCompress(in, out string, crf int, preset string) []string {
	return []string{
		"-y", "-i", in,
		"-c:v", "libx264", "-preset", preset, "-crf", strconv.Itoa(crf),
		"-c:a", "aac", "-b:a", "128k",
		out,
	}
}

// BuildConcat concatenates the inputs named by a list descriptor. Inputs are
// re-encoded rather than stream-copied so heterogeneous sources still merge.
func BuildConcat(listPath, out string, crf int) []string {
	return []string{
		"-y", "-f", "concat", "-safe", "0", "-i", listPath,
		"-c:v", "libx264", "-preset", "fast", "-crf", strconv.Itoa(crf),
		"-c:a", "aac", "-b:a", "192k",
		out,
	}
}

// BuildStaticWatermark overlays text at a fixed position; audio is copied.
func BuildStaticWatermark(in, out string, style TextStyle, position string) []string {
	x, y := drawtextPosition(position)
	return []string{
		"-y", "-i", in,
		"-vf", drawtextFilter(style, x, y),
		"-c:a", "copy",
		out,
	}
}

// BuildMovingWatermark overlays text sweeping across the frame; audio is copied.
func BuildMovingWatermark(in, out string, style TextStyle, mode string) []string {
	x, y := movingPosition(mode)
	return []string{
		"-y", "-i", in,
		"-vf", drawtextFilter(style, x, y),
		"-c:a", "copy",
		out,
	}
}

// BuildTrimCopy cuts without re-encoding. Fast, but fails on streams that
// cannot be cut at the requested points.
func BuildTrimCopy(in, out, start, end string) []string {
	return []string{
		"-y", "-i", in,
		"-ss", start, "-to", end,
		"-c", "copy",
		out,
	}
}

// BuildTrimReencode is the fallback cut with a full re-encode.
func BuildTrimReencode(in, out, start, end string) []string {
	return []string{
		"-y", "-i", in,
		"-ss", start, "-to", end,
		"-c:v", "libx264", "-c:a", "aac",
		out,
	}
}

// BuildResize scales to the given height; -2 keeps the width even and the
// aspect ratio intact.
func BuildResize(in, out string, height int) []string {
	return []string{
		"-y", "-i", in,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:v", "libx264", "-c:a", "aac",
		out,
	}
}

// BuildExtractAudio strips the video stream and encodes the audio as mp3.
func BuildExtractAudio(in, out string) []string {
	return []string{
		"-y", "-i", in,
		"-vn", "-c:a", "libmp3lame", "-b:a", "192k",
		out,
	}
}

// BuildThumbnail grabs a single frame. The seek precedes the input so ffmpeg
// jumps by keyframe instead of decoding up to the offset.
func BuildThumbnail(in, out, timestamp string) []string {
	return []string{
		"-y", "-ss", timestamp, "-i", in,
		"-frames:v", "1",
		out,
	}
}

// BuildReplaceAudioCopy muxes the audio file onto the video without touching
// the video stream, trimming to the shorter of the two.
func BuildReplaceAudioCopy(video, audio, out string) []string {
	return []string{
		"-y", "-i", video, "-i", audio,
		"-c:v", "copy",
		"-map", "0:v:0", "-map", "1:a:0",
		"-shortest",
		out,
	}
}

// BuildReplaceAudioReencode is the fallback mux with the audio re-encoded.
func BuildReplaceAudioReencode(video, audio, out string) []string {
	return []string{
		"-y", "-i", video, "-i", audio,
		"-c:v", "copy", "-c:a", "aac",
		"-map", "0:v:0", "-map", "1:a:0",
		"-shortest",
		out,
	}
}

// BuildSpeed scales video presentation timestamps by the factor and chains
// atempo stages for the audio. Fails before any subprocess when the factor is
// out of range.
func BuildSpeed(in, out string, factor float64) ([]string, error) {
	stages, err := SpeedStages(factor)
	if err != nil {
		return nil, err
	}
	filter := fmt.Sprintf("[0:v]setpts=PTS/%s[v];[0:a]%s[a]", formatFloat(factor), atempoChain(stages))
	return []string{
		"-y", "-i", in,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		"-c:v", "libx264", "-c:a", "aac",
		out,
	}, nil
}

// BuildRotate turns the frame by quarter turns; audio is copied.
func BuildRotate(in, out string, degrees int) ([]string, error) {
	chain, err := transposeChain(degrees)
	if err != nil {
		return nil, err
	}
	return []string{
		"-y", "-i", in,
		"-vf", chain,
		"-c:v", "libx264", "-c:a", "copy",
		out,
	}, nil
}

// WriteConcatList stages the concat demuxer descriptor in dir: one
// `file '<absolute path>'` line per input, in input order. The descriptor is
// transient; the caller removes it once the merge finishes.
func WriteConcatList(dir string, inputs []string) (string, error) {
	lines := make([]string, 0, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", in, err)
		}
		lines = append(lines, fmt.Sprintf("file '%s'", escapeConcatPath(abs)))
	}

	listPath := filepath.Join(dir, "concat_list.txt")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(listPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}
	return listPath, nil
}

// escapeConcatPath escapes single quotes for the concat demuxer's quoted
// file directive.
func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, `'`, `'\''`)
}
