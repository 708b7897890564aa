package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func job(id int, userID int64, status JobStatus, age time.Duration) JobRecord {
	return JobRecord{
		ID:        fmt.Sprintf("job-%d", id),
		UserID:    userID,
		Action:    "compress",
		Status:    status,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestAppend_NewestFirstWithCap(t *testing.T) {
	idx := &JobsIndex{}
	for i := 0; i < 5; i++ {
		idx.Append(job(i, 1, JobStatusDone, 0), 3)
	}

	assert.Len(t, idx.Items, 3)
	assert.Equal(t, "job-4", idx.Items[0].ID)
	assert.Equal(t, "job-2", idx.Items[2].ID)
	assert.False(t, idx.UpdatedAt.IsZero())
}

func TestAppend_NilIndexIsNoop(t *testing.T) {
	var idx *JobsIndex
	idx.Append(job(0, 1, JobStatusDone, 0), 10)
}

func TestForUser_FiltersAndLimits(t *testing.T) {
	idx := &JobsIndex{}
	idx.Append(job(1, 7, JobStatusDone, 0), 0)
	idx.Append(job(2, 8, JobStatusDone, 0), 0)
	idx.Append(job(3, 7, JobStatusFailed, 0), 0)
	idx.Append(job(4, 7, JobStatusDone, 0), 0)

	got := idx.ForUser(7, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, "job-4", got[0].ID)
	assert.Equal(t, "job-3", got[1].ID)

	assert.Empty(t, idx.ForUser(99, 5))
	assert.Nil(t, (*JobsIndex)(nil).ForUser(7, 5))
}

func TestNewJobID_UniqueWithPrefix(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewJobID()
		assert.Regexp(t, `^job-\d+-[0-9a-f]{8}$`, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestFailedSince(t *testing.T) {
	idx := &JobsIndex{}
	idx.Append(job(1, 1, JobStatusFailed, 2*time.Hour), 0)
	idx.Append(job(2, 1, JobStatusFailed, 10*time.Minute), 0)
	idx.Append(job(3, 1, JobStatusDone, 5*time.Minute), 0)

	assert.Equal(t, 1, idx.FailedSince(time.Now().Add(-time.Hour)))
	assert.Equal(t, 2, idx.FailedSince(time.Now().Add(-3*time.Hour)))
}
