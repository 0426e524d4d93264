package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	config := &types.Config{
		RequestDelay: 5 * time.Millisecond,
		MaxRetries:   0,
		RetryBackoff: 5 * time.Millisecond,
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
	}
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewNormalizer(config, logger, utils.NewHTTPClient(config, logger))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderCanvas_PortraitCenteredWithWhitePadding(t *testing.T) {
	// A 400x800 source scales to 540x1080 and sits centered, leaving
	// 270px of white on each side.
	canvas := RenderCanvas(solidImage(400, 800, color.RGBA{R: 255, A: 255}))

	assert.Equal(t, CanvasSize, canvas.Bounds().Dx())
	assert.Equal(t, CanvasSize, canvas.Bounds().Dy())

	// Padding bands are pure white.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(100, 540))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(979, 540))

	// The scaled image occupies the middle band.
	center := canvas.RGBAAt(540, 540)
	assert.Greater(t, center.R, uint8(200))
	assert.Less(t, center.G, uint8(60))

	// Just inside and just outside the 270..810 horizontal span.
	inside := canvas.RGBAAt(300, 540)
	assert.Greater(t, inside.R, uint8(200))
	outside := canvas.RGBAAt(250, 540)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, outside)
}

func TestRenderCanvas_LandscapeFillsWidth(t *testing.T) {
	canvas := RenderCanvas(solidImage(1000, 500, color.RGBA{B: 255, A: 255}))

	// 1000x500 scales to 1080x540: full width, white above and below.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(540, 100))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(540, 979))
	mid := canvas.RGBAAt(540, 540)
	assert.Greater(t, mid.B, uint8(200))
	edge := canvas.RGBAAt(5, 540)
	assert.Greater(t, edge.B, uint8(200))
}

func TestRenderCanvas_TransparencyCompositedOntoWhite(t *testing.T) {
	// A fully transparent source must render as plain white, and the
	// output must be opaque everywhere.
	canvas := RenderCanvas(image.NewRGBA(image.Rect(0, 0, 600, 600)))

	assert.True(t, canvas.Opaque())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(300, 300))
}

func TestRenderCanvas_HalfAlphaBlendsWithWhite(t *testing.T) {
	canvas := RenderCanvas(solidImage(600, 600, color.RGBA{R: 128, A: 128}))

	assert.True(t, canvas.Opaque())
	// Half-alpha red over white lands mid-range, never black.
	px := canvas.RGBAAt(540, 540)
	assert.Greater(t, px.G, uint8(80))
	assert.Greater(t, px.R, px.G)
}

func TestNormalize_ProducesOpaqueJPEG(t *testing.T) {
	body := encodePNG(t, solidImage(400, 800, color.RGBA{R: 255, A: 255}))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	normalizer := testNormalizer(t)
	processed, err := normalizer.Normalize(context.Background(), server.URL+"/shoe.png")
	require.NoError(t, err)

	assert.Equal(t, CanvasSize, processed.Width)
	assert.Equal(t, CanvasSize, processed.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(processed.Data))
	require.NoError(t, err)
	assert.Equal(t, CanvasSize, decoded.Bounds().Dx())
	assert.Equal(t, CanvasSize, decoded.Bounds().Dy())
}

func TestNormalize_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	normalizer := testNormalizer(t)
	_, err := normalizer.Normalize(context.Background(), server.URL+"/missing.jpg")
	require.Error(t, err)

	var imgErr *types.ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, types.ImageFetchFailed, imgErr.Reason)
}

func TestNormalize_UnsupportedFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<svg xmlns='http://www.w3.org/2000/svg'></svg>"))
	}))
	defer server.Close()

	normalizer := testNormalizer(t)
	_, err := normalizer.Normalize(context.Background(), server.URL+"/vector.svg")
	require.Error(t, err)

	var imgErr *types.ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, types.ImageUnsupportedFormat, imgErr.Reason)
}
