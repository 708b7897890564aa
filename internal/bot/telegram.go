package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"clipforge/internal/archive"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/session"
	"clipforge/internal/workspace"
)

// Telegram's bot API refuses downloads above 20 MB.
const maxUploadBytes = 20 * 1024 * 1024

const historyLimit = 10

const (
	cbMenuMain  = "menu:main"
	cbMenuVideo = "menu:video"
	cbMenuAudio = "menu:audio"
	cbMenuMisc  = "menu:misc"
	cbMenuClose = "menu:close"
)

type Bot struct {
	tg         *tgbotapi.BotAPI
	cfg        *config.Config
	log        *logging.Logger
	proc       *media.Processor
	sessions   *session.Tracker
	ws         *workspace.Manager
	archive    *archive.Archiver // nil when S3 archiving is not configured
	errorsPath string

	// One transcoding job per user at a time.
	busyMu sync.Mutex
	busy   map[int64]bool

	// jobCtx outlives individual updates so a running transcode survives the
	// handler returning, but still dies on shutdown.
	jobCtx context.Context
	cancel context.CancelFunc
}

func NewBot(cfg *config.Config, proc *media.Processor, sessions *session.Tracker, ws *workspace.Manager, arch *archive.Archiver, log *logging.Logger, errorsPath string) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	return &Bot{
		tg:         api,
		cfg:        cfg,
		log:        log,
		proc:       proc,
		sessions:   sessions,
		ws:         ws,
		archive:    arch,
		errorsPath: errorsPath,
		busy:       make(map[int64]bool),
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	b.jobCtx, b.cancel = context.WithCancel(ctx)
	defer b.cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.tg.GetUpdatesChan(u)
	b.log.Infof("telegram bot started as @%s", b.tg.Self.UserName)

	go b.runMemoryWatcher(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd := <-updates:
			switch {
			case upd.Message != nil && upd.Message.IsCommand():
				b.handleCommand(upd.Message)
			case upd.Message != nil && hasMedia(upd.Message):
				b.handleMedia(upd.Message)
			case upd.Message != nil && upd.Message.Text != "":
				b.replyText(upd.Message.Chat.ID, "Pick an operation from /menu, then send a file.")
			case upd.CallbackQuery != nil:
				b.handleCallback(upd.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.replyText(chatID, "Hi! I transform video and audio clips with ffmpeg.\nPick an operation from /menu, send a file, get the result back.\nType /help for the full command list.")
		b.cmdMenu(chatID)
	case "menu":
		b.cmdMenu(chatID)
	case "help":
		b.cmdHelp(chatID)
	case "send":
		b.cmdSend(chatID, userID)
	case "add":
		b.cmdAdd(chatID, userID)
	case "done":
		b.cmdDone(chatID, userID)
	case "cancel":
		b.cmdCancel(chatID, userID)
	case "status":
		b.cmdStatus(chatID, userID)
	case "history":
		b.cmdHistory(chatID, userID)
	case "errors":
		b.cmdErrors(chatID, msg.CommandArguments())
	default:
		b.replyText(chatID, "Unknown command. Use /help")
	}
}

func (b *Bot) cmdMenu(chatID int64) {
	m := tgbotapi.NewMessage(chatID, "What would you like to do?")
	m.ReplyMarkup = mainMenuKeyboard()
	b.tg.Send(m)
}

func (b *Bot) cmdHelp(chatID int64) {
	help := `Commands:
/menu — choose an operation
/send — show what I am waiting for
/add — merge progress (files collected so far)
/done — finish collecting and merge
/cancel — drop the current operation
/status — session and queue state
/history — your recent jobs (needs archiving)
/errors — errors.log as a file, or "/errors tail" for the last lines

Flow: pick an operation from /menu, then send the file. Parameters go
in the file caption, for example "23 fast" for compress or
"00:00:05 00:00:15" for trim. Files up to 20 MB.`
	b.replyText(chatID, help)
}

func (b *Bot) cmdSend(chatID, userID int64) {
	action, ok := b.sessions.Active(userID)
	if !ok {
		b.replyText(chatID, "Nothing selected. Pick an operation from /menu first.")
		return
	}
	if action == session.ActionReplaceAudio {
		if _, stored := b.sessions.Target(userID); stored {
			b.replyText(chatID, "Now send the audio track to put on the stored video.")
			return
		}
	}
	b.replyText(chatID, actionPrompt(action))
}

func (b *Bot) cmdAdd(chatID, userID int64) {
	action, ok := b.sessions.Active(userID)
	if !ok || action != session.ActionMerge {
		b.replyText(chatID, "No merge in progress. Pick Merge from /menu first.")
		return
	}
	n := b.sessions.CollectedCount(userID)
	b.replyText(chatID, fmt.Sprintf("Collected %d video(s). Send the next one, or /done to merge.", n))
}

func (b *Bot) cmdDone(chatID, userID int64) {
	inputs, err := b.sessions.FinalizeMerge(userID)
	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrWrongAction):
		b.replyText(chatID, "No merge in progress. Pick Merge from /menu first.")
		return
	case errors.Is(err, session.ErrNeedMoreInputs):
		b.replyText(chatID, fmt.Sprintf("Need at least 2 videos to merge, you sent %d. Send more first.", b.sessions.CollectedCount(userID)))
		return
	case err != nil:
		b.log.Errorf("finalize merge for %d: %v", userID, err)
		b.replyText(chatID, "Something went wrong, try /cancel and start over.")
		return
	}

	b.startJob(jobRequest{
		userID: userID,
		chatID: chatID,
		action: session.ActionMerge,
		inputs: inputs,
	})
}

func (b *Bot) cmdCancel(chatID, userID int64) {
	released := b.sessions.Clear(userID)
	b.ws.ScheduleCleanupAll(released)
	if len(released) > 0 {
		b.replyText(chatID, "Canceled, pending files discarded.")
		return
	}
	b.replyText(chatID, "Canceled.")
}

func (b *Bot) cmdStatus(chatID, userID int64) {
	var sb strings.Builder
	sb.WriteString("Status:\n")

	if action, ok := b.sessions.Active(userID); ok {
		sb.WriteString(fmt.Sprintf("🎯 Selected: %s\n", actionLabel(action)))
		if action == session.ActionMerge {
			sb.WriteString(fmt.Sprintf("📥 Collected: %d video(s)\n", b.sessions.CollectedCount(userID)))
		}
		if action == session.ActionReplaceAudio {
			if _, stored := b.sessions.Target(userID); stored {
				sb.WriteString("🎬 Video stored, waiting for audio\n")
			}
		}
	} else {
		sb.WriteString("🎯 Nothing selected, see /menu\n")
	}

	if b.isBusy(userID) {
		sb.WriteString("⏳ A job of yours is still running\n")
	} else {
		sb.WriteString("✅ No job running\n")
	}

	if b.archive != nil {
		count, size, err := b.archive.Stats(b.jobCtx)
		if err != nil {
			b.log.Errorf("archive stats: %v", err)
			sb.WriteString("🗄 Archive: unavailable\n")
		} else {
			sb.WriteString(fmt.Sprintf("🗄 Archive: %d object(s), %s\n", count, formatBytes(size)))
		}
		if failed, err := b.archive.FailuresSince(b.jobCtx, time.Now().Add(-24*time.Hour)); err == nil && failed > 0 {
			sb.WriteString(fmt.Sprintf("❗ %d failed job(s) in the last 24h\n", failed))
		}
	}

	b.replyText(chatID, sb.String())
}

func (b *Bot) cmdHistory(chatID, userID int64) {
	if b.archive == nil {
		b.replyText(chatID, "Archiving is not configured, no history is kept.")
		return
	}

	recs, err := b.archive.History(b.jobCtx, userID, historyLimit)
	if err != nil {
		b.log.Errorf("history for %d: %v", userID, err)
		b.replyText(chatID, "Could not read the job ledger.")
		return
	}
	if len(recs) == 0 {
		b.replyText(chatID, "No jobs on record yet.")
		return
	}

	b.replyText(chatID, formatHistory(recs))
}

func (b *Bot) cmdErrors(chatID int64, args string) {
	if strings.TrimSpace(args) == "tail" {
		lines, err := TailLastNLines(b.errorsPath, 15)
		if err != nil {
			b.log.Errorf("tail errors.log: %v", err)
			b.replyText(chatID, "Could not read errors.log")
			return
		}
		if len(lines) == 0 {
			b.replyText(chatID, "errors.log is empty")
			return
		}
		b.replyText(chatID, strings.Join(lines, "\n"))
		return
	}

	f, err := os.Open(b.errorsPath)
	if err != nil {
		b.log.Errorf("open errors.log: %v", err)
		b.replyText(chatID, "Could not open errors.log")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		b.log.Errorf("stat errors.log: %v", err)
		b.replyText(chatID, "Could not read errors.log")
		return
	}
	if info.Size() == 0 {
		b.replyText(chatID, "errors.log is empty")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: "errors.log", Reader: f})
	doc.Caption = fmt.Sprintf("errors.log (%d bytes)", info.Size())
	if _, err := b.tg.Send(doc); err != nil {
		b.log.Errorf("send errors.log: %v", err)
		b.replyText(chatID, "Could not send the file")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	b.tg.Send(tgbotapi.NewCallback(cb.ID, ""))

	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	userID := cb.From.ID

	parts := splitCallback(cb.Data)
	if len(parts) < 2 {
		b.replyText(chatID, "Bad button data")
		return
	}

	switch parts[0] {
	case "menu":
		b.showMenu(chatID, msgID, parts[1])
	case "op":
		b.selectAction(chatID, userID, msgID, session.Action(parts[1]))
	default:
		b.replyText(chatID, "Unknown action")
	}
}

func (b *Bot) showMenu(chatID int64, msgID int, which string) {
	switch which {
	case "video":
		b.editWithKeyboard(chatID, msgID, "Video operations:", videoMenuKeyboard())
	case "audio":
		b.editWithKeyboard(chatID, msgID, "Audio operations:", audioMenuKeyboard())
	case "misc":
		b.editWithKeyboard(chatID, msgID, "Other operations:", miscMenuKeyboard())
	case "close":
		b.editMessage(chatID, msgID, "Closed. /menu to start again.")
	default:
		b.editWithKeyboard(chatID, msgID, "What would you like to do?", mainMenuKeyboard())
	}
}

func (b *Bot) selectAction(chatID, userID int64, msgID int, action session.Action) {
	if _, known := actionLabels[action]; !known {
		b.replyText(chatID, "Unknown operation")
		return
	}

	released := b.sessions.Select(userID, action)
	b.ws.ScheduleCleanupAll(released)

	b.editMessage(chatID, msgID, fmt.Sprintf("%s selected.\n%s", actionLabel(action), actionPrompt(action)))
}

// handleMedia routes an uploaded file according to the user's session. The
// download and any transcode run off the update loop.
func (b *Bot) handleMedia(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	action, ok := b.sessions.Active(userID)
	if !ok {
		b.replyText(chatID, "Pick an operation from /menu first, then send the file.")
		return
	}
	if b.isBusy(userID) {
		b.replyText(chatID, "Still working on your previous job, give me a moment.")
		return
	}

	meta, err := mediaMeta(msg)
	if err != nil {
		b.replyText(chatID, "Send a video or audio file.")
		return
	}
	if meta.size > maxUploadBytes {
		b.replyText(chatID, fmt.Sprintf("File is too big: %s, the limit is %s.", formatBytes(meta.size), formatBytes(maxUploadBytes)))
		return
	}

	_, wantAudio := b.sessions.Target(userID)
	if action == session.ActionReplaceAudio && wantAudio {
		if !meta.audio {
			b.replyText(chatID, "I need an audio track now. Send an audio file.")
			return
		}
	} else if !meta.video {
		b.replyText(chatID, "This operation needs a video. Send a video file.")
		return
	}

	caption := msg.Caption
	go b.receiveMedia(userID, chatID, action, meta, caption)
}

// receiveMedia downloads the file into a fresh workspace and either stores
// it in the session (merge, replace-audio target) or starts the job.
func (b *Bot) receiveMedia(userID, chatID int64, action session.Action, meta fileMeta, caption string) {
	dir, err := b.ws.Allocate(userID)
	if err != nil {
		b.log.Errorf("allocate workspace for %d: %v", userID, err)
		b.replyText(chatID, "Could not prepare a working directory, try again.")
		return
	}

	path, err := b.downloadToWorkspace(meta, dir)
	if err != nil {
		b.log.Errorf("download %s for %d: %v", meta.name, userID, err)
		b.ws.ScheduleCleanup(dir)
		if errors.Is(err, errTooBig) {
			b.replyText(chatID, fmt.Sprintf("File is too big, the limit is %s.", formatBytes(maxUploadBytes)))
			return
		}
		b.replyText(chatID, "Could not download the file from Telegram, try again.")
		return
	}
	in := session.Input{Path: path, Dir: dir}

	switch action {
	case session.ActionMerge:
		count, err := b.sessions.AppendMergeInput(userID, in)
		if err != nil {
			// Session was cleared or replaced while downloading.
			b.ws.ScheduleCleanup(dir)
			b.replyText(chatID, "The merge was canceled in the meantime. /menu to start over.")
			return
		}
		b.replyText(chatID, fmt.Sprintf("Received %d video(s). Send the next one, or /done to merge.", count))

	case session.ActionReplaceAudio:
		if _, stored := b.sessions.Target(userID); !stored {
			if err := b.sessions.StoreTarget(userID, in); err != nil {
				b.ws.ScheduleCleanup(dir)
				b.replyText(chatID, "The operation was canceled in the meantime. /menu to start over.")
				return
			}
			b.replyText(chatID, "Video stored. Now send the audio track.")
			return
		}
		target, ok := b.sessions.TakeTarget(userID)
		if !ok {
			b.ws.ScheduleCleanup(dir)
			b.replyText(chatID, "Lost the stored video, start over from /menu.")
			return
		}
		b.startJob(jobRequest{
			userID:    userID,
			chatID:    chatID,
			action:    session.ActionReplaceAudio,
			inputs:    []session.Input{target, in},
			inputName: meta.name,
		})

	default:
		b.sessions.Clear(userID)
		b.startJob(jobRequest{
			userID:    userID,
			chatID:    chatID,
			action:    action,
			inputs:    []session.Input{in},
			params:    caption,
			inputName: meta.name,
		})
	}
}

var errTooBig = errors.New("file exceeds the upload limit")

func (b *Bot) downloadToWorkspace(meta fileMeta, dir string) (string, error) {
	file, err := b.tg.GetFile(tgbotapi.FileConfig{FileID: meta.fileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(b.jobCtx, http.MethodGet, file.Link(b.cfg.TelegramToken), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	dst := filepath.Join(dir, sanitizeFilename(meta.name))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(resp.Body, maxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if n > maxUploadBytes {
		os.Remove(dst)
		return "", errTooBig
	}
	return dst, nil
}

type fileMeta struct {
	fileID string
	name   string
	size   int64
	video  bool
	audio  bool
}

func hasMedia(msg *tgbotapi.Message) bool {
	return msg.Video != nil || msg.VideoNote != nil || msg.Audio != nil ||
		msg.Voice != nil || msg.Document != nil
}

func mediaMeta(msg *tgbotapi.Message) (fileMeta, error) {
	switch {
	case msg.Video != nil:
		name := msg.Video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%d.mp4", time.Now().UnixNano())
		}
		return fileMeta{fileID: msg.Video.FileID, name: name, size: int64(msg.Video.FileSize), video: true}, nil
	case msg.VideoNote != nil:
		name := fmt.Sprintf("note_%d.mp4", time.Now().UnixNano())
		return fileMeta{fileID: msg.VideoNote.FileID, name: name, size: int64(msg.VideoNote.FileSize), video: true}, nil
	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = fmt.Sprintf("audio_%d.mp3", time.Now().UnixNano())
		}
		return fileMeta{fileID: msg.Audio.FileID, name: name, size: int64(msg.Audio.FileSize), audio: true}, nil
	case msg.Voice != nil:
		name := fmt.Sprintf("voice_%d.ogg", time.Now().UnixNano())
		return fileMeta{fileID: msg.Voice.FileID, name: name, size: int64(msg.Voice.FileSize), audio: true}, nil
	case msg.Document != nil:
		doc := msg.Document
		name := doc.FileName
		if name == "" {
			name = fmt.Sprintf("doc_%d", time.Now().UnixNano())
		}
		m := fileMeta{fileID: doc.FileID, name: name, size: int64(doc.FileSize)}
		mime := strings.ToLower(doc.MimeType)
		switch {
		case strings.HasPrefix(mime, "video/"):
			m.video = true
		case strings.HasPrefix(mime, "audio/"):
			m.audio = true
		default:
			return fileMeta{}, errors.New("unsupported document type")
		}
		return m, nil
	}
	return fileMeta{}, errors.New("no media in message")
}

func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	).Replace(name)
}

func (b *Bot) isBusy(userID int64) bool {
	b.busyMu.Lock()
	defer b.busyMu.Unlock()
	return b.busy[userID]
}

// tryAcquire marks the user busy; false means a job is already running.
func (b *Bot) tryAcquire(userID int64) bool {
	b.busyMu.Lock()
	defer b.busyMu.Unlock()
	if b.busy[userID] {
		return false
	}
	b.busy[userID] = true
	return true
}

func (b *Bot) release(userID int64) {
	b.busyMu.Lock()
	defer b.busyMu.Unlock()
	delete(b.busy, userID)
}

var actionLabels = map[session.Action]string{
	session.ActionCompress:        "🗜 Compress",
	session.ActionMerge:           "🧩 Merge videos",
	session.ActionWatermark:       "💧 Watermark",
	session.ActionMovingWatermark: "🌊 Moving watermark",
	session.ActionTrim:            "✂️ Trim",
	session.ActionResize:          "📐 Resize",
	session.ActionSpeed:           "⏩ Speed",
	session.ActionRotate:          "🔄 Rotate",
	session.ActionThumbnail:       "🖼 Thumbnail",
	session.ActionExtractAudio:    "🎧 Extract audio",
	session.ActionReplaceAudio:    "🎵 Replace audio",
}

func actionLabel(a session.Action) string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

func actionPrompt(a session.Action) string {
	switch a {
	case session.ActionCompress:
		return "Send a video. Optional caption: CRF PRESET, e.g. \"23 fast\" (CRF 0-51, lower is better)."
	case session.ActionMerge:
		return "Send two or more videos one by one, then /done to merge them in order."
	case session.ActionWatermark:
		return "Send a video with caption: TEXT | COLOR | SIZE | POSITION.\nOnly TEXT is required. Positions: center, top-left, top-right, bottom-left, bottom-right."
	case session.ActionMovingWatermark:
		return "Send a video with caption: TEXT | MODE.\nModes: left-right (default), top-bottom."
	case session.ActionTrim:
		return "Send a video with caption: START END, e.g. \"00:00:05 00:00:15\"."
	case session.ActionResize:
		return "Send a video with caption: HEIGHT in pixels, e.g. \"480\". Width scales to match."
	case session.ActionSpeed:
		return "Send a video with caption: FACTOR, e.g. \"2\" for double speed or \"0.5\" for half."
	case session.ActionRotate:
		return "Send a video with caption: DEGREES, one of 90, 180, 270 (clockwise)."
	case session.ActionThumbnail:
		return "Send a video. Optional caption: TIMESTAMP, e.g. \"00:00:07\" (default 00:00:03)."
	case session.ActionExtractAudio:
		return "Send a video. You get its audio track back as MP3."
	case session.ActionReplaceAudio:
		return "Send the video first, then the audio track to put on it."
	}
	return "Send a file."
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Video", cbMenuVideo),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎵 Audio", cbMenuAudio),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧩 Other", cbMenuMisc),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Close", cbMenuClose),
		),
	)
}

func videoMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return opMenuKeyboard(
		session.ActionCompress,
		session.ActionTrim,
		session.ActionResize,
		session.ActionSpeed,
		session.ActionRotate,
		session.ActionWatermark,
		session.ActionMovingWatermark,
		session.ActionThumbnail,
	)
}

func audioMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return opMenuKeyboard(session.ActionExtractAudio, session.ActionReplaceAudio)
}

func miscMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return opMenuKeyboard(session.ActionMerge)
}

// opMenuKeyboard lays the operation buttons out two per row with a back row.
func opMenuKeyboard(actions ...session.Action) tgbotapi.InlineKeyboardMarkup {
	buttons := lo.Map(actions, func(a session.Action, _ int) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(actionLabel(a), "op:"+string(a))
	})
	rows := lo.Chunk(buttons, 2)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbMenuMain),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func splitCallback(data string) []string {
	var result []string
	current := ""
	for _, ch := range data {
		if ch == ':' {
			result = append(result, current)
			current = ""
		} else {
			current += string(ch)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

func (b *Bot) replyText(chatID int64, text string) int {
	m := tgbotapi.NewMessage(chatID, text)
	sent, _ := b.tg.Send(m)
	return sent.MessageID
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	_, err := b.tg.Send(edit)
	return err
}

func (b *Bot) editWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	if _, err := b.tg.Send(edit); err != nil {
		b.log.Errorf("edit menu: %v", err)
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
