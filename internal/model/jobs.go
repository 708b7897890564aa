package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewJobID creates a unique job identifier, e.g. job-1701432000-a1b2c3d4.
func NewJobID() string {
	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		return fmt.Sprintf("job-%d", timestamp)
	}
	return fmt.Sprintf("job-%d-%s", timestamp, hex.EncodeToString(random))
}

// Append records a finished job, newest first, keeping at most max entries.
func (idx *JobsIndex) Append(rec JobRecord, max int) {
	if idx == nil {
		return
	}
	items := make([]JobRecord, 0, len(idx.Items)+1)
	items = append(items, rec)
	items = append(items, idx.Items...)
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	idx.Items = items
	idx.UpdatedAt = time.Now()
}

// ForUser returns up to limit of the user's most recent jobs.
func (idx *JobsIndex) ForUser(userID int64, limit int) []JobRecord {
	if idx == nil {
		return nil
	}
	out := make([]JobRecord, 0, limit)
	for _, item := range idx.Items {
		if item.UserID != userID {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FailedSince counts failed jobs recorded after the cutoff.
func (idx *JobsIndex) FailedSince(cutoff time.Time) int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, item := range idx.Items {
		if item.Status == JobStatusFailed && item.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n
}
