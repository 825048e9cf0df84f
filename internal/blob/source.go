package blob

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidAssetRef marks an asset URL no configured backend understands.
// Records carrying one are malformed and never retried.
var ErrInvalidAssetRef = errors.New("invalid asset reference")

type Metadata struct {
	Name     string
	MimeType string
}

// AssetSession is one independent connection to a remote blob store. Fetch
// workers never share sessions.
type AssetSession interface {
	ResolveRef(rawURL string) (string, error)
	Metadata(ctx context.Context, assetID string) (*Metadata, error)
	Download(ctx context.Context, assetID string) (io.ReadCloser, int64, error)
}

type AssetSource interface {
	Connect(ctx context.Context) (AssetSession, error)
}
