package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacmb/contentsched/internal/airtable"
	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/transfer"
)

type batchServer struct {
	mu      sync.Mutex
	batches [][]transfer.RecordUpdate
	failIDs map[string]struct{}
}

func (s *batchServer) handler(w http.ResponseWriter, r *http.Request) {
	var req transfer.BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.batches = append(s.batches, req.Records)
	s.mu.Unlock()

	for _, rec := range req.Records {
		if _, ok := s.failIDs[rec.ID]; ok {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"error":{"type":"INVALID_RECORDS","message":"record gone"}}`)
			return
		}
	}
	fmt.Fprint(w, `{"records":[]}`)
}

func confirmationBatch(n int) []models.BatchConfirmation {
	confs := make([]models.BatchConfirmation, 0, n)
	for i := 0; i < n; i++ {
		confs = append(confs, models.BatchConfirmation{
			RemoteID:      fmt.Sprintf("rec%03d", i),
			PostID:        fmt.Sprintf("post-%03d", i),
			ScheduledDate: "2025-03-22T10:00:00",
		})
	}
	return confs
}

func TestPushConfirmationsBatchesOfTen(t *testing.T) {
	backend := &batchServer{}
	server := httptest.NewServer(http.HandlerFunc(backend.handler))
	defer server.Close()

	svc := NewSyncService(airtable.NewClient("pat", server.URL))
	result := svc.PushConfirmations(context.Background(), "base", "table", confirmationBatch(25))

	assert.Len(t, result.Succeeded, 25)
	assert.Empty(t, result.FailedBatches)

	require.Len(t, backend.batches, 3)
	assert.Len(t, backend.batches[0], 10)
	assert.Len(t, backend.batches[1], 10)
	assert.Len(t, backend.batches[2], 5)

	first := backend.batches[0][0]
	assert.Equal(t, "rec000", first.ID)
	assert.Equal(t, "post-000", first.Fields["post_id"])
	assert.Equal(t, "2025-03-22T10:00:00", first.Fields["scheduled_date"])
}

func TestPushConfirmationsPartialFailureIsolation(t *testing.T) {
	// rec012 sits in batch 2 of 3.
	backend := &batchServer{failIDs: map[string]struct{}{"rec012": {}}}
	server := httptest.NewServer(http.HandlerFunc(backend.handler))
	defer server.Close()

	svc := NewSyncService(airtable.NewClient("pat", server.URL))
	result := svc.PushConfirmations(context.Background(), "base", "table", confirmationBatch(25))

	assert.Len(t, result.Succeeded, 15, "batches 1 and 3 still push")
	require.Len(t, result.FailedBatches, 1)
	assert.Len(t, result.FailedBatches[0].Confirmations, 10)
	assert.Contains(t, result.FailedBatches[0].Reason, "record gone")

	assert.Len(t, backend.batches, 3, "a failed batch must not be retried nor block later batches")
}

func TestPushConfirmationsEmpty(t *testing.T) {
	svc := NewSyncService(airtable.NewClient("pat", "http://127.0.0.1:0"))
	result := svc.PushConfirmations(context.Background(), "base", "table", nil)

	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.FailedBatches)
}
