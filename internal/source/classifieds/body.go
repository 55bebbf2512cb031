package classifieds

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// maxBodySize caps a single index page.
const maxBodySize = 16 << 20

// readBody reads and decompresses a response body according to its
// Content-Encoding header.
func readBody(body io.Reader, encoding string) ([]byte, error) {
	var reader io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(body)
	case "", "identity":
		reader = body
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}
