package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/logging"
	"clipforge/internal/model"
	"clipforge/internal/s3"
)

// memClient keeps objects in a map so ledger and upload behavior can be
// checked without a bucket.
type memClient struct {
	objects      map[string][]byte
	contentTypes map[string]string
	deleted      []string
}

func newMemClient() *memClient {
	return &memClient{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memClient) PutBytes(_ context.Context, key string, b []byte, contentType string) error {
	m.objects[key] = b
	m.contentTypes[key] = contentType
	return nil
}

func (m *memClient) PutFile(ctx context.Context, key string, path string, contentType string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.PutBytes(ctx, key, b, contentType)
}

func (m *memClient) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memClient) List(_ context.Context, prefix string) ([]s3.ObjectInfo, error) {
	var out []s3.ObjectInfo
	for key, b := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, s3.ObjectInfo{Key: key, Size: int64(len(b))})
		}
	}
	return out, nil
}

func (m *memClient) ReadJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := m.objects[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memClient) WriteJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.PutBytes(ctx, key, b, "application/json")
}

func newTestArchiver(t *testing.T) (*Archiver, *memClient) {
	t.Helper()
	log, err := logging.New(filepath.Join(t.TempDir(), "errors.log"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	mem := newMemClient()
	return New(mem, "jobs.json", log), mem
}

func TestStoreOutput_KeyAndContentType(t *testing.T) {
	a, mem := newTestArchiver(t)

	out := filepath.Join(t.TempDir(), "compressed.mp4")
	require.NoError(t, os.WriteFile(out, []byte("clip"), 0o644))

	key, err := a.StoreOutput(context.Background(), 42, "job-1-abc", out)
	require.NoError(t, err)
	assert.Equal(t, "uploads/42/job-1-abc/compressed.mp4", key)
	assert.Equal(t, []byte("clip"), mem.objects[key])
	assert.Equal(t, "video/mp4", mem.contentTypes[key])
}

func TestStoreOutput_MissingFile(t *testing.T) {
	a, _ := newTestArchiver(t)

	_, err := a.StoreOutput(context.Background(), 42, "job-1-abc", "/no/such/file.mp4")
	assert.Error(t, err)
}

func TestRecord_AppendsNewestFirst(t *testing.T) {
	a, mem := newTestArchiver(t)
	ctx := context.Background()

	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-1", UserID: 7, Action: "compress", Status: model.JobStatusDone}))
	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-2", UserID: 7, Action: "trim", Status: model.JobStatusFailed}))

	var idx model.JobsIndex
	require.NoError(t, json.Unmarshal(mem.objects["jobs.json"], &idx))
	require.Len(t, idx.Items, 2)
	assert.Equal(t, "job-2", idx.Items[0].ID)
	assert.Equal(t, "job-1", idx.Items[1].ID)
}

func TestRecord_EvictionDeletesArchivedObjects(t *testing.T) {
	a, mem := newTestArchiver(t)
	ctx := context.Background()

	var idx model.JobsIndex
	for i := 0; i < maxLedgerEntries; i++ {
		key := fmt.Sprintf("uploads/1/job-%d/out.mp4", i)
		mem.objects[key] = []byte("x")
		idx.Append(model.JobRecord{ID: fmt.Sprintf("job-%d", i), UserID: 1, OutputKey: key}, 0)
	}
	require.NoError(t, mem.WriteJSON(ctx, "jobs.json", &idx))

	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-new", UserID: 1}))

	// idx.Append prepends, so job-0 sits at the tail and gets evicted.
	assert.Equal(t, []string{"uploads/1/job-0/out.mp4"}, mem.deleted)

	var after model.JobsIndex
	require.NoError(t, json.Unmarshal(mem.objects["jobs.json"], &after))
	assert.Len(t, after.Items, maxLedgerEntries)
	assert.Equal(t, "job-new", after.Items[0].ID)
}

func TestHistory(t *testing.T) {
	a, _ := newTestArchiver(t)
	ctx := context.Background()

	got, err := a.History(ctx, 7, 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-1", UserID: 7}))
	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-2", UserID: 8}))
	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-3", UserID: 7}))

	got, err = a.History(ctx, 7, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "job-3", got[0].ID)
	assert.Equal(t, "job-1", got[1].ID)
}

func TestFailuresSince(t *testing.T) {
	a, _ := newTestArchiver(t)
	ctx := context.Background()
	now := time.Now()

	n, err := a.FailuresSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-1", Status: model.JobStatusFailed, CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-2", Status: model.JobStatusFailed, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, a.Record(ctx, model.JobRecord{ID: "job-3", Status: model.JobStatusDone, CreatedAt: now}))

	n, err = a.FailuresSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStats(t *testing.T) {
	a, mem := newTestArchiver(t)

	mem.objects["uploads/1/job-1/a.mp4"] = []byte("aaaa")
	mem.objects["uploads/2/job-2/b.mp3"] = []byte("bb")
	mem.objects["jobs.json"] = []byte("{}")

	count, size, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(6), size)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", contentTypeFor("a/b/out.MP4"))
	assert.Equal(t, "audio/mpeg", contentTypeFor("audio.mp3"))
	assert.Equal(t, "image/jpeg", contentTypeFor("thumb.jpg"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("list.txt"))
}
