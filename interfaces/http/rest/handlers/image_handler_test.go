package handlers

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "recipebook/pkg/errors"
)

type staticImageHost struct {
	body []byte
}

func (s *staticImageHost) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"image/png"}},
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}, nil
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG, keeping the chunk CRC valid
func withDeclaredSize(data []byte, width, height uint32) []byte {
	out := append([]byte(nil), data...)
	// 8-byte signature, 4-byte length, "IHDR", then width and height
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func thumbnailRequest(t *testing.T, host HTTPDoer) *httptest.ResponseRecorder {
	t.Helper()
	h := NewImageHandler(host, nil, 10<<20, pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/images/thumbnail?url=https://images.example.com/a.png&height=20", nil)
	rec := httptest.NewRecorder()
	h.Thumbnail(rec, req)
	return rec
}

func TestThumbnail_ResizesSmallImage(t *testing.T) {
	rec := thumbnailRequest(t, &staticImageHost{body: encodePNG(t, 80, 40)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	cfg, err := png.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestThumbnail_RejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
	}{
		{name: "30000 square", width: 30000, height: 30000},
		{name: "just over the budget", width: 8000, height: 5001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := withDeclaredSize(encodePNG(t, 2, 2), tt.width, tt.height)
			rec := thumbnailRequest(t, &staticImageHost{body: body})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "pixels are supported")
		})
	}
}

func TestThumbnail_RejectsNonImage(t *testing.T) {
	rec := thumbnailRequest(t, &staticImageHost{body: []byte("<html></html>")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
