// Package dataset walks the Slakh2100 on-disk layout.
//
// A split directory holds Track* directories; each track carries a
// metadata.yaml describing its stems and a stems/ directory with one audio file
// per rendered stem. The package lists tracks in a stable order, parses the
// metadata while preserving the document's stem order, and resolves stem audio
// files. It performs no labelling or signal processing.
package dataset
