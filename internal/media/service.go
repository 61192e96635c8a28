package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"movievault/internal/config"
	"movievault/internal/s3"
)

// Kinds of catalog images that have renditions.
const (
	KindThumbnail = "thumbnail"
	KindBackdrop  = "backdrop"
)

var ErrUnknownKind = errors.New("unknown image kind")

// Store is the slice of the object store the rendition service needs.
type Store interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key, contentType string, data []byte) error
}

type Service struct {
	store   Store
	storage *config.StorageConfig
	logger  *zap.SugaredLogger
}

func NewService(store Store, storage *config.StorageConfig, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:   store,
		storage: storage,
		logger:  logger,
	}
}

// Options returns the storage options for kind.
func (s *Service) Options(kind string) (*config.StorageOptions, error) {
	if kind != KindThumbnail && kind != KindBackdrop {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s.storage.GetStorageOptions(kind), nil
}

// Image is an encoded rendition. Key is the rendition's storage key, built
// from the resolved width and quality.
type Image struct {
	Data        []byte
	ContentType string
	Key         string
}

// Rendition returns the image for file resized to width and encoded per the
// kind's options. A zero width selects the default size, a zero quality the
// configured quality. Renditions are generated on first request and written
// back to the store.
func (s *Service) Rendition(ctx context.Context, kind, file string, width, quality int) (*Image, error) {
	so, err := s.Options(kind)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width, err = strconv.Atoi(so.DefaultSize)
		if err != nil {
			return nil, fmt.Errorf("please specify a width, as `default_size` is not set for %s", kind)
		}
	}
	if quality == 0 {
		quality = so.Quality
	}

	contentType := ContentType(so.ConvertTo)
	key := RenditionKey(so, file, width, quality)

	data, err := s.store.GetObject(ctx, key)
	if err == nil {
		return &Image{Data: data, ContentType: contentType, Key: key}, nil
	}
	if !errors.Is(err, s3.ErrNotFound) {
		return nil, fmt.Errorf("failed to get rendition: %w", err)
	}

	original, err := s.store.GetObject(ctx, so.OriginFolder+"/"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to get original image: %w", err)
	}

	data, err = Generate(original, width, quality, so.ConvertTo)
	if err != nil {
		return nil, err
	}

	if err := s.store.PutObject(ctx, key, contentType, data); err != nil {
		// the rendition is still served, it will just be regenerated next time
		s.logger.Warnw("failed to store rendition", "key", key, "error", err)
	} else {
		s.logger.Infow("rendition generated", "key", key, "width", width, "quality", quality)
	}
	return &Image{Data: data, ContentType: contentType, Key: key}, nil
}

// Warm generates every configured size of file at the configured quality.
func (s *Service) Warm(ctx context.Context, kind, file string) ([]string, error) {
	so, err := s.Options(kind)
	if err != nil {
		return nil, err
	}

	original, err := s.store.GetObject(ctx, so.OriginFolder+"/"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to get original image: %w", err)
	}

	keys := make([]string, 0, len(so.Sizes))
	for _, sizeStr := range so.Sizes {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return keys, fmt.Errorf("invalid size format: %s", sizeStr)
		}

		data, err := Generate(original, size, so.Quality, so.ConvertTo)
		if err != nil {
			return keys, fmt.Errorf("failed to generate rendition for size %d: %w", size, err)
		}

		key := RenditionKey(so, file, size, so.Quality)
		if err := s.store.PutObject(ctx, key, ContentType(so.ConvertTo), data); err != nil {
			return keys, fmt.Errorf("failed to upload rendition for size %d: %w", size, err)
		}
		keys = append(keys, key)
	}

	s.logger.Infow("renditions warmed", "kind", kind, "file", file, "count", len(keys))
	return keys, nil
}

// Generate decodes imageData, resizes it to width keeping the aspect ratio,
// and encodes it as convertTo.
func Generate(imageData []byte, width, quality int, convertTo string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	switch normalizeFormat(convertTo) {
	case "png":
		err = png.Encode(&buf, resized)
	case "webp":
		err = webp.Encode(&buf, resized, &webp.Options{Quality: float32(quality)})
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode rendition: %w", err)
	}

	return buf.Bytes(), nil
}

// RenditionKey places a rendition next to its siblings:
// <thumb_folder>/<base>_<width>_q<quality>.<ext>
func RenditionKey(so *config.StorageOptions, file string, width, quality int) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return fmt.Sprintf("%s/%s_%d_q%d.%s", so.ThumbFolder, base, width, quality, normalizeFormat(so.ConvertTo))
}

func ContentType(convertTo string) string {
	return "image/" + normalizeFormat(convertTo)
}

func normalizeFormat(convertTo string) string {
	switch f := strings.ToLower(convertTo); f {
	case "png", "webp":
		return f
	default:
		return "jpeg"
	}
}
