// internal/services/media_service.go
package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/storage"
)

const (
	releaseDateKey = "releasedate"
	// clockSkew backdates signed URLs so a slightly-fast client clock
	// does not see a not-yet-valid URL.
	clockSkew = 5 * time.Minute
)

// releaseDateFormats are the accepted encodings: date-only, and
// date-time with "Z" or a generic offset, with or without sub-second
// precision.
var releaseDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

type MediaConfig struct {
	// PlaceholderObject is served when the real object is absent or not
	// yet released.
	PlaceholderObject string
	URLTTL            time.Duration
	MetadataTimeout   time.Duration
}

// MediaService resolves logical image names to short-lived signed URLs,
// applying the release-date visibility gate. Gating is best-effort: a
// failing or slow metadata read degrades to serving the real object
// ungated, never to blocking the media path.
type MediaService struct {
	objects storage.ObjectStore
	cfg     MediaConfig

	// now is swapped in tests to cross the release boundary.
	now func() time.Time
}

func NewMediaService(objects storage.ObjectStore, cfg MediaConfig) *MediaService {
	if cfg.PlaceholderObject == "" {
		cfg.PlaceholderObject = "coming-soon.jpg"
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 60 * time.Minute
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = 2 * time.Second
	}
	return &MediaService{objects: objects, cfg: cfg, now: time.Now}
}

// ResolveDeliveryURL maps a logical object name to a signed URL.
//
//	empty name          -> placeholder
//	object missing      -> placeholder
//	release in future   -> placeholder (gated)
//	otherwise           -> the object itself
//
// A metadata read failure other than not-found serves the original
// object without gating evaluation.
func (s *MediaService) ResolveDeliveryURL(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return s.signURL(s.cfg.PlaceholderObject)
	}

	mctx, cancel := context.WithTimeout(ctx, s.cfg.MetadataTimeout)
	defer cancel()
	metadata, err := s.objects.GetMetadata(mctx, name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logrus.WithField("object", name).Info("object not found, serving placeholder")
			return s.signURL(s.cfg.PlaceholderObject)
		}
		if apperrors.IsCancelled(err) && ctx.Err() != nil {
			// The caller cancelled, not the metadata deadline.
			return "", err
		}
		logrus.WithField("object", name).WithError(err).
			Warn("metadata read failed, serving object without gating")
		return s.signURL(name)
	}

	if release, ok := s.releaseDate(name, metadata); ok && release.After(s.now()) {
		logrus.WithFields(logrus.Fields{
			"object":  name,
			"release": release.Format(time.RFC3339),
		}).Debug("object gated until release date, serving placeholder")
		return s.signURL(s.cfg.PlaceholderObject)
	}
	return s.signURL(name)
}

// UploadImage writes the object bytes and then, if provided, attaches
// the metadata as a second write. A metadata failure after a successful
// content write is returned to the caller, but the content stays
// uploaded; there is no cleanup.
func (s *MediaService) UploadImage(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", apperrors.Invalid("object name is required")
	}
	if len(data) == 0 {
		return "", apperrors.Invalid("object content is required")
	}
	if err := s.objects.PutObject(ctx, name, data, contentTypeFor(name)); err != nil {
		return "", err
	}
	if len(metadata) > 0 {
		if err := s.objects.SetMetadata(ctx, name, metadata); err != nil {
			return name, err
		}
	}
	return name, nil
}

// releaseDate extracts and parses the gate. Parsing is lenient: an
// unparseable non-empty value means no gate is applied and the object
// is delivered.
func (s *MediaService) releaseDate(name string, metadata map[string]string) (time.Time, bool) {
	var raw string
	for k, v := range metadata {
		if strings.EqualFold(k, releaseDateKey) {
			raw = strings.TrimSpace(v)
			break
		}
	}
	if raw == "" {
		return time.Time{}, false
	}
	for _, format := range releaseDateFormats {
		if t, err := time.ParseInLocation(format, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	logrus.WithFields(logrus.Fields{
		"object":       name,
		"release_date": raw,
	}).Warn("unparseable release date, serving without gate")
	return time.Time{}, false
}

func (s *MediaService) signURL(name string) (string, error) {
	issued := s.now()
	return s.objects.SignURL(name, issued.Add(-clockSkew), issued.Add(s.cfg.URLTTL))
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
