package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// RouterSource picks a backend per asset URL: Google Drive share links go to
// the drive backend, s3:// references to the object store. Sessions returned
// by Connect are independent, as required per fetch worker.
type RouterSource struct {
	drive AssetSource
	s3    AssetSource
}

func NewRouterSource(drive, s3 AssetSource) *RouterSource {
	return &RouterSource{drive: drive, s3: s3}
}

func (r *RouterSource) Connect(ctx context.Context) (AssetSession, error) {
	session := &routerSession{ctx: ctx, source: r}
	return session, nil
}

type routerSession struct {
	ctx    context.Context
	source *RouterSource

	driveSession AssetSession
	s3Session    AssetSession
}

const (
	drivePrefix = "drive:"
	s3Prefix    = "s3:"
)

func (r *routerSession) ResolveRef(rawURL string) (string, error) {
	switch {
	case strings.Contains(rawURL, "drive.google.com"):
		session, err := r.driveBackend()
		if err != nil {
			return "", err
		}
		id, err := session.ResolveRef(rawURL)
		if err != nil {
			return "", err
		}
		return drivePrefix + id, nil
	case strings.HasPrefix(rawURL, "s3://"):
		session, err := r.s3Backend()
		if err != nil {
			return "", err
		}
		id, err := session.ResolveRef(rawURL)
		if err != nil {
			return "", err
		}
		return s3Prefix + id, nil
	default:
		return "", fmt.Errorf("%w: no backend for %s", ErrInvalidAssetRef, rawURL)
	}
}

func (r *routerSession) Metadata(ctx context.Context, assetID string) (*Metadata, error) {
	session, id, err := r.route(assetID)
	if err != nil {
		return nil, err
	}
	return session.Metadata(ctx, id)
}

func (r *routerSession) Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error) {
	session, id, err := r.route(assetID)
	if err != nil {
		return nil, 0, err
	}
	return session.Download(ctx, id)
}

func (r *routerSession) route(assetID string) (AssetSession, string, error) {
	switch {
	case strings.HasPrefix(assetID, drivePrefix):
		session, err := r.driveBackend()
		if err != nil {
			return nil, "", err
		}
		return session, strings.TrimPrefix(assetID, drivePrefix), nil
	case strings.HasPrefix(assetID, s3Prefix):
		session, err := r.s3Backend()
		if err != nil {
			return nil, "", err
		}
		return session, strings.TrimPrefix(assetID, s3Prefix), nil
	default:
		return nil, "", fmt.Errorf("%w: unrouted asset id %s", ErrInvalidAssetRef, assetID)
	}
}

// Backends connect lazily so a run that only touches Drive never needs S3
// credentials, and vice versa.
func (r *routerSession) driveBackend() (AssetSession, error) {
	if r.driveSession != nil {
		return r.driveSession, nil
	}
	if r.source.drive == nil {
		return nil, fmt.Errorf("%w: drive backend not configured", ErrInvalidAssetRef)
	}
	session, err := r.source.drive.Connect(r.ctx)
	if err != nil {
		return nil, err
	}
	r.driveSession = session
	return session, nil
}

func (r *routerSession) s3Backend() (AssetSession, error) {
	if r.s3Session != nil {
		return r.s3Session, nil
	}
	if r.source.s3 == nil {
		return nil, fmt.Errorf("%w: s3 backend not configured", ErrInvalidAssetRef)
	}
	session, err := r.source.s3.Connect(r.ctx)
	if err != nil {
		return nil, err
	}
	r.s3Session = session
	return session, nil
}
