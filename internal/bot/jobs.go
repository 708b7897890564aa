package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
	"clipforge/internal/model"
	"clipforge/internal/session"
)

type jobRequest struct {
	userID    int64
	chatID    int64
	action    session.Action
	inputs    []session.Input
	params    string // raw caption text
	inputName string
}

// startJob claims the user's job slot and runs the transcode in its own
// goroutine: status message, run, archive, deliver, cleanup.
func (b *Bot) startJob(req jobRequest) {
	if !b.tryAcquire(req.userID) {
		b.ws.ScheduleCleanupAll(lo.Uniq(session.Dirs(req.inputs)))
		b.replyText(req.chatID, "Still working on your previous job, give me a moment.")
		return
	}

	go func() {
		defer b.release(req.userID)
		defer b.ws.ScheduleCleanupAll(lo.Uniq(session.Dirs(req.inputs)))

		jobID := model.NewJobID()
		statusID := b.replyText(req.chatID, fmt.Sprintf("⏳ Working: %s...", actionLabel(req.action)))
		started := time.Now()

		out, err := b.runAction(b.jobCtx, req)
		if err != nil {
			b.log.Errorf("job %s (%s for %d): %v", jobID, req.action, req.userID, err)
			b.editMessage(req.chatID, statusID, userFacingError(err))
			b.recordJob(jobID, req, "", 0, started, err)
			return
		}

		outputKey := b.archiveOutput(jobID, req, out)

		if err := b.sendOutput(req.chatID, req.action, out); err != nil {
			b.log.Errorf("job %s deliver: %v", jobID, err)
			b.editMessage(req.chatID, statusID, "❌ Produced the file but could not send it back, try again.")
			b.recordJob(jobID, req, outputKey, 0, started, err)
			return
		}

		b.editMessage(req.chatID, statusID, fmt.Sprintf("✅ %s done in %s", actionLabel(req.action), time.Since(started).Round(100*time.Millisecond)))
		b.recordJob(jobID, req, outputKey, outputSize(out), started, nil)
	}()
}

// runAction parses caption parameters and dispatches to the catalog.
func (b *Bot) runAction(ctx context.Context, req jobRequest) (string, error) {
	in := req.inputs[0].Path
	dir := req.inputs[0].Dir

	switch req.action {
	case session.ActionCompress:
		params, err := parseCompressParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Compress(ctx, in, dir, params)
	case session.ActionMerge:
		return b.proc.Merge(ctx, session.Paths(req.inputs), dir, media.MergeParams{CRF: defaultCRF})
	case session.ActionWatermark:
		params, err := parseWatermarkParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.StaticWatermark(ctx, in, dir, params)
	case session.ActionMovingWatermark:
		params, err := parseMovingWatermarkParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.MovingWatermark(ctx, in, dir, params)
	case session.ActionTrim:
		params, err := parseTrimParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Trim(ctx, in, dir, params)
	case session.ActionResize:
		params, err := parseResizeParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Resize(ctx, in, dir, params)
	case session.ActionSpeed:
		params, err := parseSpeedParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Speed(ctx, in, dir, params)
	case session.ActionRotate:
		params, err := parseRotateParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Rotate(ctx, in, dir, params)
	case session.ActionThumbnail:
		params, err := parseThumbnailParams(req.params)
		if err != nil {
			return "", err
		}
		return b.proc.Thumbnail(ctx, in, dir, params)
	case session.ActionExtractAudio:
		return b.proc.ExtractAudio(ctx, in, dir)
	case session.ActionReplaceAudio:
		return b.proc.ReplaceAudio(ctx, req.inputs[0].Path, req.inputs[1].Path, dir)
	}
	return "", fmt.Errorf("%w: unknown operation %q", ffmpeg.ErrInvalidArgument, req.action)
}

// sendOutput delivers the produced file in the shape Telegram expects for
// its type: photo for thumbnails, audio for extracted tracks, video
// otherwise.
func (b *Bot) sendOutput(chatID int64, action session.Action, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := tgbotapi.FileReader{Name: filepath.Base(path), Reader: f}

	var msg tgbotapi.Chattable
	switch action {
	case session.ActionThumbnail:
		photo := tgbotapi.NewPhoto(chatID, reader)
		msg = photo
	case session.ActionExtractAudio:
		audio := tgbotapi.NewAudio(chatID, reader)
		audio.Caption = b.resultCaption(path)
		msg = audio
	default:
		video := tgbotapi.NewVideo(chatID, reader)
		video.Caption = b.resultCaption(path)
		msg = video
	}

	_, err = b.tg.Send(msg)
	return err
}

// resultCaption annotates the delivery with probed duration and dimensions.
// Best effort: an unprobeable output still gets sent.
func (b *Bot) resultCaption(path string) string {
	size := outputSize(path)
	res, err := b.proc.Describe(b.jobCtx, path)
	if err != nil {
		b.log.Warnf("probe result %s: %v", path, err)
		return formatBytes(size)
	}

	parts := []string{}
	if res.Width > 0 && res.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", res.Width, res.Height))
	}
	if res.DurationSeconds > 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", res.DurationSeconds))
	}
	parts = append(parts, formatBytes(size))
	return strings.Join(parts, ", ")
}

func (b *Bot) archiveOutput(jobID string, req jobRequest, out string) string {
	if b.archive == nil {
		return ""
	}
	key, err := b.archive.StoreOutput(b.jobCtx, req.userID, jobID, out)
	if err != nil {
		b.log.Errorf("job %s archive: %v", jobID, err)
		return ""
	}
	return key
}

func (b *Bot) recordJob(jobID string, req jobRequest, outputKey string, size int64, started time.Time, jobErr error) {
	if b.archive == nil {
		return
	}

	rec := model.JobRecord{
		ID:         jobID,
		UserID:     req.userID,
		Action:     string(req.action),
		Status:     model.JobStatusDone,
		InputName:  req.inputName,
		OutputKey:  outputKey,
		DurationMS: time.Since(started).Milliseconds(),
		SizeBytes:  size,
		CreatedAt:  time.Now(),
	}
	if rec.InputName == "" {
		rec.InputName = fmt.Sprintf("%d clip(s)", len(req.inputs))
	}
	if jobErr != nil {
		rec.Status = model.JobStatusFailed
		rec.Error = jobErr.Error()
	}

	if err := b.archive.Record(b.jobCtx, rec); err != nil {
		b.log.Errorf("job %s ledger: %v", jobID, err)
	}
}

func outputSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// userFacingError maps the error taxonomy to a short reply; detail stays in
// the log.
func userFacingError(err error) string {
	var runErr *ffmpeg.RunError
	switch {
	case errors.Is(err, ffmpeg.ErrInvalidArgument):
		return "❌ " + strings.TrimPrefix(err.Error(), "ffmpeg: ")
	case errors.Is(err, ffmpeg.ErrTimeout):
		return "❌ Processing took too long and was stopped. Try a shorter clip."
	case errors.Is(err, ffmpeg.ErrNotFound):
		return "❌ Lost the downloaded file, please send it again."
	case errors.As(err, &runErr):
		return "❌ Processing failed. The file may be corrupt or in an unsupported format."
	default:
		return "❌ Something went wrong, please try again."
	}
}

func formatHistory(recs []model.JobRecord) string {
	var sb strings.Builder
	sb.WriteString("Your recent jobs:\n")
	for _, rec := range recs {
		mark := "✅"
		if rec.Status == model.JobStatusFailed {
			mark = "❌"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s", mark, rec.CreatedAt.Format("Jan 02 15:04"), rec.Action))
		if rec.SizeBytes > 0 {
			sb.WriteString(", " + formatBytes(rec.SizeBytes))
		}
		if rec.DurationMS > 0 {
			sb.WriteString(fmt.Sprintf(", %.1fs", float64(rec.DurationMS)/1000))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
