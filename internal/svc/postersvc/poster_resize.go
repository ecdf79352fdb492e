package postersvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrInvalidSize is returned when the configured thumbnail size is not positive.
	ErrInvalidSize = errors.New("invalid thumbnail size")
)

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// coverCrop returns the largest centered rectangle of src with the aspect ratio width:height.
func coverCrop(src image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := src.Dx(), src.Dy()

	cropW, cropH := srcW, srcW*height/width
	if cropH > srcH {
		cropW, cropH = srcH*width/height, srcH
	}

	cropW = max(cropW, 1)
	cropH = max(cropH, 1)

	x0 := src.Min.X + (srcW-cropW)/2
	y0 := src.Min.Y + (srcH-cropH)/2

	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

// renderThumbnail decodes data, cover-crops it to width:height, scales it and encodes PNG.
func renderThumbnail(data []byte, mimeType string, width, height int, interpol draw.Interpolator) ([]byte, error) {
	decoder, err := getDecoderByType(mimeType)
	if err != nil {
		return nil, err
	}

	original, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if original.Bounds().Empty() {
		return nil, fmt.Errorf("decode image: %w", image.ErrFormat)
	}

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, coverCrop(original.Bounds(), width, height), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, bitmap); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return out.Bytes(), nil
}
