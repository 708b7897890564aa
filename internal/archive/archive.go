// Package archive persists job outputs to S3-compatible storage and keeps a
// JSON ledger of finished jobs for the history command.
package archive

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/model"
	"clipforge/internal/s3"
)

const (
	uploadsPrefix    = "uploads"
	maxLedgerEntries = 500
)

// Archiver uploads outputs under uploads/<user>/<job>/ and appends records
// to a capped ledger. When the cap evicts old records their archived objects
// are deleted too.
type Archiver struct {
	s3c       s3.Client
	ledgerKey string
	log       *logging.Logger

	mu sync.Mutex // serializes ledger read-modify-write
}

func New(s3c s3.Client, ledgerKey string, log *logging.Logger) *Archiver {
	if ledgerKey == "" {
		ledgerKey = "jobs.json"
	}
	return &Archiver{s3c: s3c, ledgerKey: ledgerKey, log: log}
}

// StoreOutput uploads one job output and returns its object key.
func (a *Archiver) StoreOutput(ctx context.Context, userID int64, jobID, localPath string) (string, error) {
	key := path.Join(uploadsPrefix, fmt.Sprintf("%d", userID), jobID, filepath.Base(localPath))
	if err := a.s3c.PutFile(ctx, key, localPath, contentTypeFor(localPath)); err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	a.log.Infof("archived %s", key)
	return key, nil
}

// Record appends one finished job to the ledger.
func (a *Archiver) Record(ctx context.Context, rec model.JobRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx model.JobsIndex
	if _, err := a.s3c.ReadJSON(ctx, a.ledgerKey, &idx); err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	evicted := idx.Items
	idx.Append(rec, maxLedgerEntries)
	if len(evicted)+1 > maxLedgerEntries {
		for _, old := range evicted[maxLedgerEntries-1:] {
			if old.OutputKey == "" {
				continue
			}
			if err := a.s3c.Delete(ctx, old.OutputKey); err != nil {
				a.log.Errorf("evict %s: %v", old.OutputKey, err)
			}
		}
	}

	return a.s3c.WriteJSON(ctx, a.ledgerKey, &idx)
}

// History returns up to limit of the user's most recent jobs, newest first.
func (a *Archiver) History(ctx context.Context, userID int64, limit int) ([]model.JobRecord, error) {
	var idx model.JobsIndex
	found, err := a.s3c.ReadJSON(ctx, a.ledgerKey, &idx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if !found {
		return nil, nil
	}
	return idx.ForUser(userID, limit), nil
}

// FailuresSince counts ledger records that failed after the cutoff.
func (a *Archiver) FailuresSince(ctx context.Context, cutoff time.Time) (int, error) {
	var idx model.JobsIndex
	found, err := a.s3c.ReadJSON(ctx, a.ledgerKey, &idx)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}
	if !found {
		return 0, nil
	}
	return idx.FailedSince(cutoff), nil
}

// Stats reports how many objects the archive holds and their total size.
func (a *Archiver) Stats(ctx context.Context) (count int, totalBytes int64, err error) {
	objects, err := a.s3c.List(ctx, uploadsPrefix+"/")
	if err != nil {
		return 0, 0, err
	}
	for _, obj := range objects {
		totalBytes += obj.Size
	}
	return len(objects), totalBytes, nil
}

func contentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
