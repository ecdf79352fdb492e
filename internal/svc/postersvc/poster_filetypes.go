package postersvc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeTIFF = "image/tiff"
	MIMETypeBMP  = "image/bmp"
	MIMETypeWebP = "image/webp"
)

//nolint:gochecknoglobals
var (
	imageHeaders = []struct {
		mimeType string
		prefix   string
	}{
		{MIMETypeJPEG, "\xFF\xD8\xFF"},
		{MIMETypePNG, "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		{MIMETypeGIF, "GIF87a"},
		{MIMETypeGIF, "GIF89a"},
		{MIMETypeTIFF, "\x49\x49\x2A\x00"},
		{MIMETypeTIFF, "\x4D\x4D\x00\x2A"},
		{MIMETypeBMP, "BM"},
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeGIF:  gif.Decode,
		MIMETypeTIFF: tiff.Decode,
		MIMETypeBMP:  bmp.Decode,
		MIMETypeWebP: webp.Decode,
	}
)

// sniffMIMEType identifies the image format from its leading bytes.
func sniffMIMEType(data []byte) (string, error) {
	// RIFF container: "RIFF" <size:4> "WEBP"
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return MIMETypeWebP, nil
	}

	for _, header := range imageHeaders {
		if bytes.HasPrefix(data, []byte(header.prefix)) {
			return header.mimeType, nil
		}
	}

	return "", domain.ErrPosterTypeNotSupported
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrPosterTypeNotSupported, mimeType)
	}

	return decoder, nil
}
