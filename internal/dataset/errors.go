package dataset

import (
	"fmt"
	"io/fs"
)

var (
	// ErrMetadataMissing reports a track directory without metadata.yaml.
	ErrMetadataMissing = fmt.Errorf("track metadata missing: %w", fs.ErrNotExist)
	// ErrStemsMissing reports a track directory without its stems directory.
	ErrStemsMissing = fmt.Errorf("track stems directory missing: %w", fs.ErrNotExist)
)
