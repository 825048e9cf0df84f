package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3ResolveRef(t *testing.T) {
	session := &s3Session{}

	got, err := session.ResolveRef("s3://media-bucket/reels/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media-bucket/reels/clip.mp4", got)
}

func TestS3ResolveRefRejectsMalformed(t *testing.T) {
	session := &s3Session{}

	for _, rawURL := range []string{
		"https://drive.google.com/open?id=abc",
		"s3://bucket-only",
		"s3:///no-bucket",
		"s3://bucket/",
	} {
		_, err := session.ResolveRef(rawURL)
		assert.ErrorIs(t, err, ErrInvalidAssetRef, rawURL)
	}
}

func TestSplitAssetID(t *testing.T) {
	bucket, key, err := splitAssetID("media-bucket/reels/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media-bucket", bucket)
	assert.Equal(t, "reels/clip.mp4", key)

	_, _, err = splitAssetID("no-slash")
	assert.ErrorIs(t, err, ErrInvalidAssetRef)
}
