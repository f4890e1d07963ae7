package source

import "io"

// File handlers list and open bronze extract files from a given root. This
// interface allows us to load from multiple sources, including local
// directories and AWS S3.
type FileHandler interface {
	// List the bronze extract files under the given source directory, in
	// lexicographic order. A source with no files returns an empty list, not
	// an error.
	ListFiles(path string) ([]string, error)
	// Open the named file for reading.
	OpenFile(path string) (io.ReadCloser, error)
}
