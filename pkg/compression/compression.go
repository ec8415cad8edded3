package compression

import (
	"path/filepath"

	"github.com/giongto35/eye/pkg/compression/zip"
	"github.com/giongto35/eye/pkg/logger"
)

type Extractor interface {
	Extract(src string, dest string) ([]string, error)
}

// NewFromExt returns an extractor for the archive by its file extension
// or nil if the file is not a known archive.
func NewFromExt(path string, log *logger.Logger) Extractor {
	switch filepath.Ext(path) {
	case zip.Ext:
		return zip.New(log)
	default:
		return nil
	}
}
