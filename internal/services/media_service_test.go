// internal/services/media_service_test.go
package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso/storefront/internal/storage"
)

var mediaNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newMediaFixture(t *testing.T) (*MediaService, *storage.MemoryStore) {
	t.Helper()
	objects := storage.NewMemoryStore()
	svc := NewMediaService(objects, MediaConfig{})
	svc.now = func() time.Time { return mediaNow }
	return svc, objects
}

func uploadWithRelease(t *testing.T, svc *MediaService, name, releaseDate string) {
	t.Helper()
	var metadata map[string]string
	if releaseDate != "" {
		metadata = map[string]string{"ReleaseDate": releaseDate}
	}
	_, err := svc.UploadImage(context.Background(), name, []byte("img"), metadata)
	require.NoError(t, err)
}

func TestResolveDeliveryURLEmptyName(t *testing.T) {
	svc, _ := newMediaFixture(t)
	url, err := svc.ResolveDeliveryURL(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, url, "coming-soon.jpg")
}

func TestResolveDeliveryURLMissingObject(t *testing.T) {
	svc, _ := newMediaFixture(t)
	url, err := svc.ResolveDeliveryURL(context.Background(), "ghost.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "coming-soon.jpg")
}

func TestResolveDeliveryURLNoGate(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", "")

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "mug.jpg")
}

func TestResolveDeliveryURLFutureRelease(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", mediaNow.Add(24*time.Hour).Format(time.RFC3339))

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "coming-soon.jpg")
}

func TestResolveDeliveryURLPastRelease(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", mediaNow.Add(-24*time.Hour).Format(time.RFC3339))

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "mug.jpg")
}

func TestResolveDeliveryURLGateFlipsAtRelease(t *testing.T) {
	svc, _ := newMediaFixture(t)
	release := mediaNow.Add(time.Hour)
	uploadWithRelease(t, svc, "mug.jpg", release.Format(time.RFC3339))

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "coming-soon.jpg")

	// Same object, clock moved past the release instant.
	svc.now = func() time.Time { return release }
	url, err = svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "mug.jpg", "release instant itself is not in the future")
}

func TestResolveDeliveryURLReleaseDateFormats(t *testing.T) {
	future := mediaNow.Add(48 * time.Hour)
	cases := []string{
		future.Format("2006-01-02"),
		future.Format(time.RFC3339),
		future.Format("2006-01-02T15:04:05"),
		future.Format("2006-01-02T15:04:05.000"),
		future.Format("2006-01-02T15:04:05-07:00"),
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			svc, _ := newMediaFixture(t)
			uploadWithRelease(t, svc, "mug.jpg", raw)
			url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
			require.NoError(t, err)
			assert.Contains(t, url, "coming-soon.jpg")
		})
	}
}

func TestResolveDeliveryURLCaseInsensitiveKey(t *testing.T) {
	svc, _ := newMediaFixture(t)
	_, err := svc.UploadImage(context.Background(), "mug.jpg", []byte("img"),
		map[string]string{"releasedate": mediaNow.Add(time.Hour).Format(time.RFC3339)})
	require.NoError(t, err)

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "coming-soon.jpg")
}

func TestResolveDeliveryURLUnparseableDate(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", "next tuesday")

	// An unreadable gate serves the object rather than hiding it.
	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "mug.jpg")
}

func TestResolveDeliveryURLMetadataFault(t *testing.T) {
	svc, objects := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", mediaNow.Add(time.Hour).Format(time.RFC3339))
	objects.MetadataErr = assert.AnError

	// Metadata unavailable: serve the original, gating skipped.
	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "mug.jpg")
}

func TestResolveDeliveryURLCallerCancelled(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ResolveDeliveryURL(ctx, "mug.jpg")
	assert.Error(t, err)
}

func TestResolveDeliveryURLValidityWindow(t *testing.T) {
	svc, _ := newMediaFixture(t)
	uploadWithRelease(t, svc, "mug.jpg", "")

	url, err := svc.ResolveDeliveryURL(context.Background(), "mug.jpg")
	require.NoError(t, err)
	// The fake URL carries the window: backdated 5 minutes, valid 60.
	assert.Contains(t, url, fmt.Sprintf("from=%d", mediaNow.Add(-5*time.Minute).Unix()))
	assert.Contains(t, url, fmt.Sprintf("to=%d", mediaNow.Add(60*time.Minute).Unix()))
}

func TestUploadImage(t *testing.T) {
	svc, objects := newMediaFixture(t)

	name, err := svc.UploadImage(context.Background(), "mug.jpg", []byte("img"),
		map[string]string{"ReleaseDate": "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, "mug.jpg", name)

	data, ok := objects.Object("mug.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("img"), data)
	metadata, err := objects.GetMetadata(context.Background(), "mug.jpg")
	require.NoError(t, err)
	assert.Equal(t, "2026-04-01", metadata["ReleaseDate"])
}

func TestUploadImageValidation(t *testing.T) {
	svc, _ := newMediaFixture(t)

	_, err := svc.UploadImage(context.Background(), "  ", []byte("img"), nil)
	assert.Error(t, err)
	_, err = svc.UploadImage(context.Background(), "mug.jpg", nil, nil)
	assert.Error(t, err)
}

func TestUploadImageMetadataFailureKeepsContent(t *testing.T) {
	svc, objects := newMediaFixture(t)
	objects.SetMetaErr = assert.AnError

	name, err := svc.UploadImage(context.Background(), "mug.jpg", []byte("img"),
		map[string]string{"ReleaseDate": "2026-04-01"})
	require.Error(t, err)
	// The stored name comes back alongside the error so the caller can
	// retry attaching the metadata.
	assert.Equal(t, "mug.jpg", name)
	_, ok := objects.Object("mug.jpg")
	assert.True(t, ok)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeFor("a.JPG"))
	assert.Equal(t, "image/jpeg", contentTypeFor("a.jpeg"))
	assert.Equal(t, "image/png", contentTypeFor("a.png"))
	assert.Equal(t, "image/gif", contentTypeFor("a.gif"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("noext"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("archive.bin"))
}
