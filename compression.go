package rrepr

import (
	"io"
	"path"
	"strings"

	"github.com/qri-io/dataset/compression"
)

// compressionFormats maps key extensions to the compression format names
// understood by the dataset compression package
var compressionFormats = map[string]string{
	".gz":  "gzip",
	".zst": "zst",
}

// CompressionFormat returns the compression format a key's extension implies,
// or "" for uncompressed keys
func CompressionFormat(key string) string {
	return compressionFormats[strings.ToLower(path.Ext(NewPath(key).Base()))]
}

// DocumentKey strips a compression extension from key
func DocumentKey(key string) string {
	if CompressionFormat(key) == "" {
		return key
	}
	return strings.TrimSuffix(key, path.Ext(key))
}

func decompressor(key string, r io.ReadCloser) (io.ReadCloser, error) {
	f := CompressionFormat(key)
	if f == "" {
		return io.NopCloser(r), nil
	}
	return compression.Decompressor(f, r)
}
