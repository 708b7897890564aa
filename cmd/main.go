package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/archive"
	"clipforge/internal/bot"
	"clipforge/internal/config"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/s3"
	"clipforge/internal/session"
	"clipforge/internal/workspace"
)

const errorsPath = "errors.log"

func main() {
	// Load .env file if it exists (try multiple paths)
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		_ = godotenv.Load(path)
	}

	log, err := logging.New(errorsPath)
	if err != nil {
		panic(err)
	}
	defer log.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Errorf("load config: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Errorf("config: %v", err)
		return
	}
	log.Infof("starting with %s", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutdown signal received")
		cancel()
	}()

	ws, err := workspace.NewManager(cfg.WorkDir, cfg.CleanupDelay, log)
	if err != nil {
		log.Errorf("workspace: %v", err)
		return
	}

	sessions := session.NewTracker()

	runner := ffmpeg.NewRunner(cfg.FFmpegBin, cfg.FFmpegTimeout, cfg.FFmpegConcurrency, log)
	prober := ffmpeg.NewProber(cfg.FFprobeBin)
	proc := media.NewProcessor(runner, prober, media.Options{
		FontFile:          cfg.FontFile,
		WatermarkFontSize: cfg.WatermarkFontSize,
		WatermarkColor:    cfg.WatermarkColor,
	}, log)

	var arch *archive.Archiver
	if cfg.ArchiveEnabled() {
		s3c, err := s3.New(*cfg)
		if err != nil {
			log.Errorf("s3 init: %v", err)
			return
		}
		arch = archive.New(s3c, cfg.S3LedgerKey, log)
		log.Infof("result archiving enabled, bucket %s", cfg.S3Bucket)
	} else {
		log.Infof("result archiving disabled, set S3_BUCKET and S3_REGION to enable")
	}

	janitor := workspace.NewJanitor(ws, sessions, cfg.JanitorSpec, cfg.WorkspaceMaxAge, cfg.SessionMaxAge, log)
	go func() {
		if err := janitor.Run(ctx); err != nil {
			log.Errorf("janitor stopped: %v", err)
			cancel()
		}
	}()

	b, err := bot.NewBot(cfg, proc, sessions, ws, arch, log, errorsPath)
	if err != nil {
		log.Errorf("bot init: %v", err)
		return
	}
	if err := b.Run(ctx); err != nil {
		log.Errorf("bot run: %v", err)
		return
	}

	<-ctx.Done()
	time.Sleep(300 * time.Millisecond)
}
