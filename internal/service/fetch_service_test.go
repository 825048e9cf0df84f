package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacmb/contentsched/internal/blob"
	"github.com/zacmb/contentsched/internal/models"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x11}, 600)...)

type fakeSession struct {
	mu        sync.Mutex
	content   []byte
	failNext  int
	downloads int
}

func (s *fakeSession) ResolveRef(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "fake://") {
		return "", fmt.Errorf("%w: %s", blob.ErrInvalidAssetRef, rawURL)
	}
	return strings.TrimPrefix(rawURL, "fake://"), nil
}

func (s *fakeSession) Metadata(ctx context.Context, assetID string) (*blob.Metadata, error) {
	return &blob.Metadata{Name: assetID + ".jpg", MimeType: "image/jpeg"}, nil
}

func (s *fakeSession) Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads++
	if s.failNext > 0 {
		s.failNext--
		return nil, 0, errors.New("simulated network error")
	}
	return io.NopCloser(bytes.NewReader(s.content)), int64(len(s.content)), nil
}

func (s *fakeSession) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

type fakeSource struct {
	mu       sync.Mutex
	session  *fakeSession
	connects int
}

func (s *fakeSource) Connect(ctx context.Context) (blob.AssetSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return s.session, nil
}

func TestFetchIdempotent(t *testing.T) {
	session := &fakeSession{content: jpegBytes}
	svc := NewFetchService(&fakeSource{session: session})
	dest := filepath.Join(t.TempDir(), "images", "a.jpg")

	require.NoError(t, svc.Fetch(context.Background(), session, "asset-1", dest, nil))
	require.NoError(t, svc.Fetch(context.Background(), session, "asset-1", dest, nil))

	assert.Equal(t, 1, session.downloadCount(), "second fetch must not touch the network")

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, content)
}

type failingReader struct {
	data []byte
	pos  int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, errors.New("connection reset")
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *failingReader) Close() error { return nil }

type readerSession struct {
	fakeSession
	reader io.ReadCloser
	size   int64
}

func (s *readerSession) Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error) {
	return s.reader, s.size, nil
}

func TestFetchRemovesPartialFileOnError(t *testing.T) {
	session := &readerSession{
		reader: &failingReader{data: jpegBytes[:100]},
		size:   int64(len(jpegBytes)),
	}
	svc := NewFetchService(&fakeSource{})
	dir := t.TempDir()
	dest := filepath.Join(dir, "clip.mp4")

	err := svc.Fetch(context.Background(), session, "asset-1", dest, nil)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "destination must not exist after a failed fetch")

	leftovers, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "no temp files may remain")
}

func TestFetchRejectsNonMediaContent(t *testing.T) {
	session := &fakeSession{content: []byte("<html><body>quota exceeded</body></html>")}
	svc := NewFetchService(&fakeSource{session: session})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	err := svc.Fetch(context.Background(), session, "asset-1", dest, nil)
	require.ErrorIs(t, err, ErrUnrecognizedContent)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchProgressMonotonic(t *testing.T) {
	session := &fakeSession{content: jpegBytes}
	svc := NewFetchService(&fakeSource{session: session})
	dest := filepath.Join(t.TempDir(), "a.jpg")

	var fractions []float64
	err := svc.Fetch(context.Background(), session, "asset-1", dest, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)

	require.NotEmpty(t, fractions)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	assert.Equal(t, float64(1), fractions[len(fractions)-1])
}

func TestMaterializeAllRecordsStates(t *testing.T) {
	session := &fakeSession{content: jpegBytes, failNext: 0}
	source := &fakeSource{session: session}
	svc := NewFetchService(source)

	records := []*models.RecordResult{
		{Candidate: &models.CandidateRecord{AssetURL: "fake://one", Caption: "a", ScheduleDate: "2025-03-21"}, Ordinal: 1, Stage: models.StagePending},
		{Candidate: &models.CandidateRecord{AssetURL: "ftp://nope", Caption: "b", ScheduleDate: "2025-03-21"}, Ordinal: 2, Stage: models.StagePending},
	}

	svc.MaterializeAll(context.Background(), "alexis", t.TempDir(), records)

	assert.Equal(t, models.StageFetched, records[0].Stage)
	require.NotNil(t, records[0].Asset)
	assert.Equal(t, models.AssetStatePresent, records[0].Asset.State)

	assert.Equal(t, models.StageFailed, records[1].Stage)
	assert.Equal(t, models.StageFetched, records[1].FailedAt)
	assert.True(t, records[1].Permanent, "invalid asset refs are not retryable")
}

func TestMaterializeAllTransientFailureIsRetryable(t *testing.T) {
	session := &fakeSession{content: jpegBytes, failNext: 1}
	svc := NewFetchService(&fakeSource{session: session})

	records := []*models.RecordResult{
		{Candidate: &models.CandidateRecord{AssetURL: "fake://one", Caption: "a", ScheduleDate: "2025-03-21"}, Ordinal: 1, Stage: models.StagePending},
	}

	svc.MaterializeAll(context.Background(), "alexis", t.TempDir(), records)
	assert.Equal(t, models.StageFailed, records[0].Stage)
	assert.False(t, records[0].Permanent)
}

func TestMaterializeAllOwnSessionPerWorker(t *testing.T) {
	session := &fakeSession{content: jpegBytes}
	source := &fakeSource{session: session}
	svc := NewFetchService(source)

	var records []*models.RecordResult
	for i := 0; i < 5; i++ {
		records = append(records, &models.RecordResult{
			Candidate: &models.CandidateRecord{
				AssetURL:     fmt.Sprintf("fake://asset-%d", i),
				Caption:      fmt.Sprintf("caption %d", i),
				ScheduleDate: "2025-03-21",
			},
			Ordinal: i + 1,
			Stage:   models.StagePending,
		})
	}

	svc.MaterializeAll(context.Background(), "alexis", t.TempDir(), records)

	assert.Equal(t, 5, source.connects, "each worker goroutine connects its own session")
	for _, rec := range records {
		assert.Equal(t, models.StageFetched, rec.Stage)
	}
}
