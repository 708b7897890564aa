package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSpeedStages caps the atempo chain length. The decomposition below keeps
// every stage inside atempo's supported 0.5-2.0 window, so extreme factors
// would otherwise produce arbitrarily long filter chains.
const maxSpeedStages = 16

// sweepPeriodSec is how long one full watermark sweep across the frame takes.
const sweepPeriodSec = 10

// drawtextPosition maps a named position to its (x, y) expression pair.
// Anything unrecognized lands bottom-right.
func drawtextPosition(position string) (x, y string) {
	switch position {
	case "center":
		return "(w-text_w)/2", "(h-text_h)/2"
	case "top-left":
		return "10", "10"
	case "top-right":
		return "w-text_w-10", "10"
	case "bottom-left":
		return "10", "h-text_h-10"
	default: // bottom-right
		return "w-text_w-10", "h-text_h-10"
	}
}

// movingPosition maps a sweep mode to time-parameterized (x, y) expressions.
// Anything unrecognized sweeps left-right.
func movingPosition(mode string) (x, y string) {
	switch mode {
	case "top-bottom":
		return "(w-text_w)/2",
			fmt.Sprintf("-text_h+mod(t*(h+text_h)/%d,h+text_h)", sweepPeriodSec)
	default: // left-right
		return fmt.Sprintf("-text_w+mod(t*(w+text_w)/%d,w+text_w)", sweepPeriodSec),
			"(h-text_h)/2"
	}
}

// drawtextFilter assembles the drawtext filter string shared by the static
// and moving watermark commands.
func drawtextFilter(style TextStyle, x, y string) string {
	var sb strings.Builder
	sb.WriteString("drawtext=text='")
	sb.WriteString(escapeDrawtext(style.Text))
	sb.WriteString("':fontcolor=")
	sb.WriteString(style.Color)
	sb.WriteString(":fontsize=")
	sb.WriteString(strconv.Itoa(style.FontSize))
	sb.WriteString(":x=")
	sb.WriteString(x)
	sb.WriteString(":y=")
	sb.WriteString(y)
	if style.FontFile != "" {
		sb.WriteString(":fontfile=")
		sb.WriteString(style.FontFile)
	}
	return sb.String()
}

// escapeDrawtext neutralizes the characters drawtext treats specially inside
// a quoted text value.
func escapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}

// SpeedStages decomposes a playback-speed factor into a chain of atempo
// stages, each within the filter's 0.5-2.0 range: factors above 2 are halved
// through 2.0 stages, factors below 0.5 doubled through 0.5 stages, and the
// remainder becomes the final stage. The product of all stages is exactly the
// requested factor.
func SpeedStages(factor float64) ([]float64, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("%w: speed factor must be positive, got %s", ErrInvalidArgument, formatFloat(factor))
	}

	var stages []float64
	remaining := factor
	for remaining > 2.0 {
		stages = append(stages, 2.0)
		remaining /= 2
	}
	for remaining < 0.5 {
		stages = append(stages, 0.5)
		remaining *= 2
	}
	stages = append(stages, remaining)

	if len(stages) > maxSpeedStages {
		return nil, fmt.Errorf("%w: speed factor %s needs %d tempo stages (limit %d)",
			ErrInvalidArgument, formatFloat(factor), len(stages), maxSpeedStages)
	}
	return stages, nil
}

// atempoChain renders a stage list as a comma-joined atempo filter chain.
func atempoChain(stages []float64) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = "atempo=" + formatFloat(s)
	}
	return strings.Join(parts, ",")
}

// transposeChain maps a rotation to its transpose filter chain. Only quarter
// turns are supported.
func transposeChain(degrees int) (string, error) {
	switch degrees {
	case 90:
		return "transpose=1", nil
	case 180:
		return "transpose=1,transpose=1", nil
	case 270:
		return "transpose=2", nil
	default:
		return "", fmt.Errorf("%w: rotation must be 90, 180 or 270 degrees, got %d", ErrInvalidArgument, degrees)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
