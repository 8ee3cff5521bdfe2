package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // decoder registration
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"recipebook/application/ports"
	pkgerrors "recipebook/pkg/errors"
	"recipebook/pkg/utils"
)

// Thumbnail bounds
const (
	DefaultThumbnailHeight = 500
	MaxThumbnailHeight     = 1000
	// MaxSourcePixels caps the decoded size of a source image; a small
	// compressed file can declare enormous dimensions.
	MaxSourcePixels = 40_000_000

	thumbnailCacheTTL = 3600
	fetchTimeout      = 10 * time.Second
)

// HTTPDoer is the subset of *http.Client used to fetch source images
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ImageHandler resizes recipe images for the catalog cards
type ImageHandler struct {
	responder
	client   HTTPDoer
	cache    ports.Cache
	maxBytes int64
}

// NewImageHandler creates a new image handler. client may be nil; cache may be nil.
func NewImageHandler(client HTTPDoer, cache ports.Cache, maxBytes int64, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ImageHandler {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &ImageHandler{
		responder: responder{errors: errorHandler, logger: logger},
		client:    client,
		cache:     cache,
		maxBytes:  maxBytes,
	}
}

type thumbnail struct {
	contentType string
	data        []byte
}

// Thumbnail handles GET /images/thumbnail?url=&height=
func (h *ImageHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("url")
	if !utils.IsHTTPURL(imageURL) {
		h.respondError(w, r, pkgerrors.NewValidationError("url must be an absolute http(s) URL").WithDetail("field", "url"))
		return
	}
	height := DefaultThumbnailHeight
	if raw := r.URL.Query().Get("height"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxThumbnailHeight {
			h.respondError(w, r, pkgerrors.NewValidationError(
				fmt.Sprintf("height must be between 1 and %d", MaxThumbnailHeight)).WithDetail("field", "height"))
			return
		}
		height = n
	}

	key := fmt.Sprintf("thumbnail:%d:%s", height, imageURL)
	if h.cache != nil {
		if cached, ok := h.cache.Get(r.Context(), key); ok {
			if thumb, ok := cached.(thumbnail); ok {
				h.writeImage(w, thumb, "HIT")
				return
			}
		}
	}

	thumb, err := h.render(r, imageURL, height)
	if err != nil {
		h.logger.Warn("Failed to render thumbnail", zap.String("url", imageURL), zap.Error(err))
		h.respondError(w, r, err)
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), key, thumb, thumbnailCacheTTL)
	}
	h.writeImage(w, thumb, "MISS")
}

func (h *ImageHandler) render(r *http.Request, imageURL string, height int) (thumbnail, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, imageURL, nil)
	if err != nil {
		return thumbnail{}, pkgerrors.NewValidationError("invalid image URL").WithCause(err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return thumbnail{}, pkgerrors.NewExternalError("image host", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return thumbnail{}, pkgerrors.NewExternalError("image host", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body := io.Reader(resp.Body)
	if h.maxBytes > 0 {
		body = io.LimitReader(resp.Body, h.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return thumbnail{}, pkgerrors.NewExternalError("image host", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return thumbnail{}, pkgerrors.NewValidationError("url does not point to a supported image").WithCause(err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return thumbnail{}, pkgerrors.NewValidationError(
			fmt.Sprintf("image is %dx%d; at most %d pixels are supported", cfg.Width, cfg.Height, MaxSourcePixels))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return thumbnail{}, pkgerrors.NewValidationError("url does not point to a supported image").WithCause(err)
	}

	// Width 0 keeps the aspect ratio.
	resized := resize.Resize(0, uint(height), img, resize.Lanczos3)

	var buf bytes.Buffer
	thumb := thumbnail{contentType: "image/jpeg"}
	if format == "png" {
		thumb.contentType = "image/png"
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return thumbnail{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	thumb.data = buf.Bytes()
	return thumb, nil
}

func (h *ImageHandler) writeImage(w http.ResponseWriter, thumb thumbnail, cacheStatus string) {
	w.Header().Set("Content-Type", thumb.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(thumb.data); err != nil {
		h.logger.Debug("Failed to write thumbnail", zap.Error(err))
	}
}
