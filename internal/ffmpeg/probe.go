package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/tidwall/gjson"
)

// probeTimeout bounds a single ffprobe call; probing is metadata-only and
// should never take long.
const probeTimeout = 15 * time.Second

// ProbeResult is the subset of stream/format metadata the bot cares about.
type ProbeResult struct {
	DurationSeconds float64
	Width           int
	Height          int
	HasAudio        bool
	HasVideo        bool
	FormatName      string
	SizeBytes       int64
}

// Prober inspects media files via ffprobe's JSON output.
type Prober struct {
	bin string
}

func NewProber(bin string) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{bin: bin}
}

// Probe reads duration, dimensions and stream presence from path.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeResult, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(out), nil
}

// parseProbeOutput pulls the interesting fields out of ffprobe's JSON.
// ffprobe reports numbers like duration and size as strings; gjson parses
// them either way.
func parseProbeOutput(b []byte) ProbeResult {
	root := gjson.ParseBytes(b)

	res := ProbeResult{
		DurationSeconds: root.Get("format.duration").Float(),
		FormatName:      root.Get("format.format_name").String(),
		SizeBytes:       root.Get("format.size").Int(),
	}

	if video := root.Get(`streams.#(codec_type=="video")`); video.Exists() {
		res.HasVideo = true
		res.Width = int(video.Get("width").Int())
		res.Height = int(video.Get("height").Int())
	}
	res.HasAudio = root.Get(`streams.#(codec_type=="audio")`).Exists()

	return res
}
