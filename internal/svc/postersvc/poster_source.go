package postersvc

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/mkrupp/homecase-catalog/internal/domain"
)

// readSource loads the bytes behind an entry's image reference.
// Accepted forms are data: URIs, file:// URIs and plain local paths.
func readSource(ref string, maxSize int64) ([]byte, error) {
	ref = strings.TrimSpace(ref)

	scheme, rest, hasScheme := strings.Cut(ref, ":")
	if !hasScheme || len(scheme) == 1 { // C:\path
		return readFile(ref, maxSize)
	}

	switch strings.ToLower(scheme) {
	case "data":
		return readDataURI(rest, maxSize)
	case "file":
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parse uri: %w", err)
		}

		return readFile(u.Path, maxSize)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrPosterSourceUnsupported, scheme)
	}
}

func readDataURI(rest string, maxSize int64) ([]byte, error) {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data uri", domain.ErrPosterSourceUnsupported)
	}

	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}

	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}

	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %d exceeds %d", domain.ErrPosterTooLarge, len(data), maxSize)
	}

	return data, nil
}

func readFile(path string, maxSize int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: exceeds %d", domain.ErrPosterTooLarge, maxSize)
	}

	return data, nil
}
