// Package images renders product images onto the fixed 1080x1080 white
// canvas required by the storefront import: aspect ratio preserved, no
// cropping, transparency composited onto white, always re-encoded as an
// opaque JPEG.
package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"woo-exporter/internal/types"
	"woo-exporter/utils"
)

// CanvasSize is the fixed square output dimension in pixels.
const CanvasSize = 1080

const jpegQuality = 90

// Normalizer downloads and re-renders product images. It shares the
// pipeline's HTTP client, so image downloads follow the same retry and
// politeness policy as page fetches.
type Normalizer struct {
	config *types.Config
	logger types.Logger
	client *utils.HTTPClient
}

// NewNormalizer creates an image normalizer.
func NewNormalizer(config *types.Config, logger types.Logger, client *utils.HTTPClient) *Normalizer {
	return &Normalizer{config: config, logger: logger, client: client}
}

// Normalize downloads one image and produces its canvas rendition. All
// failures come back as *types.ImageError and are non-fatal to the
// product; the caller keeps processing the remaining images.
func (n *Normalizer) Normalize(ctx context.Context, imageURL string) (*types.ProcessedImage, error) {
	body, err := n.client.Get(ctx, imageURL)
	if err != nil {
		return nil, &types.ImageError{URL: imageURL, Reason: types.ImageFetchFailed, Err: err}
	}

	src, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		reason := types.ImageDecodeFailed
		if errors.Is(err, image.ErrFormat) {
			reason = types.ImageUnsupportedFormat
		}
		return nil, &types.ImageError{URL: imageURL, Reason: reason, Err: err}
	}

	canvas := RenderCanvas(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, &types.ImageError{URL: imageURL, Reason: types.ImageDecodeFailed, Err: err}
	}

	n.logger.Debugf("Normalized %s (%s %dx%d -> %dx%d JPEG)",
		imageURL, format, src.Bounds().Dx(), src.Bounds().Dy(), CanvasSize, CanvasSize)

	return &types.ProcessedImage{
		SourceURL: imageURL,
		Width:     CanvasSize,
		Height:    CanvasSize,
		Data:      buf.Bytes(),
	}, nil
}

// RenderCanvas scales src to fit inside the square canvas, preserving
// aspect ratio, and centers it on solid white. The longer source side
// lands exactly on the canvas edge; the shorter side is padded white on
// both sides. Alpha is composited over the white fill, so the result has
// no transparency.
func RenderCanvas(src image.Image) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return canvas
	}

	longer := srcW
	if srcH > longer {
		longer = srcH
	}
	scale := float64(CanvasSize) / float64(longer)

	dstW := clampDim(int(math.Round(float64(srcW) * scale)))
	dstH := clampDim(int(math.Round(float64(srcH) * scale)))

	x := (CanvasSize - dstW) / 2
	y := (CanvasSize - dstH) / 2
	target := image.Rect(x, y, x+dstW, y+dstH)

	draw.CatmullRom.Scale(canvas, target, src, bounds, draw.Over, nil)
	return canvas
}

func clampDim(v int) int {
	if v < 1 {
		return 1
	}
	if v > CanvasSize {
		return CanvasSize
	}
	return v
}
