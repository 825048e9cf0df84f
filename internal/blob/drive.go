package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	config "github.com/zacmb/contentsched/configs"
)

// File id patterns accepted in Google Drive share URLs.
var driveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/open\?id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`),
}

type DriveSource struct {
	cfg config.Google
}

func NewDriveSource(cfg config.Google) *DriveSource {
	return &DriveSource{cfg: cfg}
}

// Connect builds an independent Drive service from the stored OAuth token.
// Each call returns a fresh session so fetch workers do not share transports.
func (s *DriveSource) Connect(ctx context.Context) (AssetSession, error) {
	credBytes, err := os.ReadFile(s.cfg.CredentialsFile)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	conf, err := google.ConfigFromJSON(credBytes, drive.DriveReadonlyScope)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	tokBytes, err := os.ReadFile(s.cfg.TokenFile)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to read google token: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokBytes, tok); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to parse google token: %w", err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &driveSession{service: service}, nil
}

type driveSession struct {
	service *drive.Service
}

func (d *driveSession) ResolveRef(rawURL string) (string, error) {
	if !strings.Contains(rawURL, "drive.google.com") {
		return "", fmt.Errorf("%w: not a drive url: %s", ErrInvalidAssetRef, rawURL)
	}
	for _, pattern := range driveIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: no file id in %s", ErrInvalidAssetRef, rawURL)
}

func (d *driveSession) Metadata(ctx context.Context, assetID string) (*Metadata, error) {
	file, err := d.service.Files.Get(assetID).Fields("name", "mimeType").Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get drive metadata for %s: %w", assetID, err)
	}
	return &Metadata{Name: file.Name, MimeType: file.MimeType}, nil
}

func (d *driveSession) Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error) {
	resp, err := d.service.Files.Get(assetID).Context(ctx).Download()
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, fmt.Errorf("failed to download drive file %s: %w", assetID, err)
	}
	return resp.Body, resp.ContentLength, nil
}
