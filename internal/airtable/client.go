package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zacmb/contentsched/internal/models"
	"github.com/zacmb/contentsched/internal/transfer"
)

// MaxBatchSize is the largest update batch the Airtable API accepts.
const MaxBatchSize = 10

var ErrMissingToken = errors.New("airtable personal access token is empty")

type Client struct {
	pat        string
	baseURL    string
	httpClient *http.Client
}

func NewClient(pat, baseURL string) *Client {
	return &Client{
		pat:     pat,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ListRecords fetches every record of a table, following offset pagination.
// viewID may be empty; maxRecords <= 0 means no limit.
func (c *Client) ListRecords(ctx context.Context, baseID, tableID, viewID string, maxRecords int) ([]transfer.AirtableRecord, error) {
	if c.pat == "" {
		slog.Info(ErrMissingToken.Error())
		return nil, ErrMissingToken
	}

	var records []transfer.AirtableRecord
	offset := ""

	for {
		params := url.Values{}
		if viewID != "" {
			params.Set("view", viewID)
		}
		if maxRecords > 0 {
			params.Set("maxRecords", strconv.Itoa(maxRecords))
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, baseID, tableID)
		if q := params.Encode(); q != "" {
			endpoint += "?" + q
		}

		var page transfer.AirtableListResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		records = append(records, page.Records...)

		if maxRecords > 0 && len(records) >= maxRecords {
			return records[:maxRecords], nil
		}
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// BatchUpdate patches up to MaxBatchSize records in a single request.
func (c *Client) BatchUpdate(ctx context.Context, baseID, tableID string, updates []transfer.RecordUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds the API limit of %d", len(updates), MaxBatchSize)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, baseID, tableID)
	body := transfer.BatchUpdateRequest{Records: updates}

	return c.do(ctx, http.MethodPatch, endpoint, &body, nil)
}

// ListUsernames fetches the Username field of every record in a table,
// lower-cased. Used against the active accounts table.
func (c *Client) ListUsernames(ctx context.Context, baseID, tableID string) (map[string]struct{}, error) {
	records, err := c.ListRecords(ctx, baseID, tableID, "", 0)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]struct{})
	for _, rec := range records {
		if name, ok := rec.Fields["Username"].(string); ok && name != "" {
			usernames[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
		}
	}
	return usernames, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.pat)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("airtable request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.AirtableErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("airtable error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("airtable error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("failed to decode airtable response: %w", err)
		}
	}
	return nil
}

// ToCandidates maps raw records to candidate records, dropping rows without
// an asset reference.
func ToCandidates(records []transfer.AirtableRecord) []*models.CandidateRecord {
	var candidates []*models.CandidateRecord
	for _, rec := range records {
		mediaPath := stringField(rec.Fields, "media_file_path")
		if mediaPath == "" {
			continue
		}
		candidates = append(candidates, &models.CandidateRecord{
			RemoteID:     rec.ID,
			AssetURL:     mediaPath,
			ScheduleDate: stringField(rec.Fields, "schedule_date"),
			ScheduleTime: stringField(rec.Fields, "schedule_time"),
			Caption:      stringField(rec.Fields, "caption"),
			Song:         stringField(rec.Fields, "song"),
			PostType:     stringField(rec.Fields, "post_type"),
			PostLocation: stringField(rec.Fields, "post_location"),
			Username:     stringField(rec.Fields, "Username"),
		})
	}
	return candidates
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
