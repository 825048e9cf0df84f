package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/zacmb/contentsched/internal/blob"
	"github.com/zacmb/contentsched/internal/models"
)

const (
	fetchWorkers  = 3
	downloadChunk = 256 * 1024
	sniffLen      = 261
)

var ErrUnrecognizedContent = errors.New("downloaded content is not a recognized media type")

type ProgressFunc func(fraction float64)

type FetchService interface {
	Fetch(ctx context.Context, session blob.AssetSession, assetID, destPath string, progress ProgressFunc) error
	MaterializeAll(ctx context.Context, account, outputDir string, records []*models.RecordResult)
}

type fetchService struct {
	source blob.AssetSource
}

func NewFetchService(source blob.AssetSource) FetchService {
	return &fetchService{source: source}
}

// Fetch streams an asset to destPath. If the destination already exists the
// call returns immediately without network access. The stream lands in a
// temp file that is renamed into place only on success, so an interrupted
// download never reads as present afterwards.
func (s *fetchService) Fetch(ctx context.Context, session blob.AssetSession, assetID, destPath string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(float64) {}
	}

	if _, err := os.Stat(destPath); err == nil {
		progress(1)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	body, size, err := session.Download(ctx, assetID)
	if err != nil {
		return err
	}
	defer body.Close()

	suffix, err := gonanoid.New()
	if err != nil {
		return err
	}
	tmpPath := destPath + "." + suffix + ".tmp"

	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, head, copyErr := copyChunks(tmpFile, body, size, progress)
	if copyErr == nil {
		copyErr = tmpFile.Sync()
	}
	if closeErr := tmpFile.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && written > 0 {
		// Reject streams that are not actually media, e.g. an HTML error
		// page served with status 200.
		if kind, _ := filetype.Match(head); kind == filetype.Unknown {
			copyErr = ErrUnrecognizedContent
		}
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		slog.Info(copyErr.Error())
		return fmt.Errorf("download of %s failed: %w", assetID, copyErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		slog.Info(err.Error())
		return fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}

	progress(1)
	return nil
}

// copyChunks copies the stream in fixed-size chunks, reporting a
// monotonically increasing completion fraction and retaining the head bytes
// for content sniffing.
func copyChunks(dst io.Writer, src io.Reader, size int64, progress ProgressFunc) (int64, []byte, error) {
	buf := make([]byte, downloadChunk)
	head := make([]byte, 0, sniffLen)
	var written int64
	var lastFraction float64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if len(head) < sniffLen {
				take := sniffLen - len(head)
				if take > n {
					take = n
				}
				head = append(head, buf[:take]...)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, head, err
			}
			written += int64(n)

			if size > 0 {
				fraction := float64(written) / float64(size)
				if fraction > 1 {
					fraction = 1
				}
				if fraction > lastFraction {
					lastFraction = fraction
					progress(fraction)
				}
			}
		}
		if readErr == io.EOF {
			return written, head, nil
		}
		if readErr != nil {
			return written, head, readErr
		}
	}
}

// MaterializeAll runs the fetch stage for every pending record with a
// bounded worker pool. Each worker goroutine opens its own blob session.
func (s *fetchService) MaterializeAll(ctx context.Context, account, outputDir string, records []*models.RecordResult) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, fetchWorkers)

	for _, rec := range records {
		if rec.Stage != models.StagePending {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(rec *models.RecordResult) {
			defer wg.Done()
			defer func() { <-semaphore }()

			s.materialize(ctx, account, outputDir, rec)
		}(rec)
	}

	wg.Wait()
}

func (s *fetchService) materialize(ctx context.Context, account, outputDir string, rec *models.RecordResult) {
	session, err := s.source.Connect(ctx)
	if err != nil {
		failRecord(rec, models.StageFetched, err)
		return
	}

	assetID, err := session.ResolveRef(rec.Candidate.AssetURL)
	if err != nil {
		failRecord(rec, models.StageFetched, err)
		return
	}

	meta, err := session.Metadata(ctx, assetID)
	if err != nil {
		failRecord(rec, models.StageFetched, err)
		return
	}

	ext := ResolveExtension(meta, rec.Candidate.AssetURL)
	relPath := DerivePath(rec.Candidate, account, ext, rec.Ordinal)
	localPath := filepath.Join(outputDir, relPath)

	rec.Asset = &models.ResolvedAsset{
		AssetID:      assetID,
		RelativePath: relPath,
		LocalPath:    localPath,
		State:        models.AssetStateDownloading,
	}

	progress := func(fraction float64) {
		slog.Debug("downloading", "asset", assetID, "progress", fmt.Sprintf("%d%%", int(fraction*100)))
	}

	if err := s.Fetch(ctx, session, assetID, localPath, progress); err != nil {
		rec.Asset.State = models.AssetStateFailed
		rec.Asset.FailReason = err.Error()
		failRecord(rec, models.StageFetched, err)
		return
	}

	rec.Asset.State = models.AssetStatePresent
	rec.Stage = models.StageFetched
}

func failRecord(rec *models.RecordResult, at models.RecordStage, err error) {
	rec.Stage = models.StageFailed
	rec.FailedAt = at
	rec.Reason = err.Error()
	if errors.Is(err, blob.ErrInvalidAssetRef) {
		rec.Permanent = true
	}
}
