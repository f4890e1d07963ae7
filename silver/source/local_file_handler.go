package source

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LocalFileHandler reads bronze extracts from a local directory tree. This
// handler should only be used for local dev/testing now.
type LocalFileHandler struct {
	Logger logrus.FieldLogger
}

func (handler *LocalFileHandler) ListFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			handler.Logger.Warnf("No bronze directory at %s. Skipping.", path)
			return nil, nil
		}
		err = errors.Wrapf(err, "could not list bronze directory %s", path)
		handler.Logger.Error(err)
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (handler *LocalFileHandler) OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		err = errors.Wrapf(err, "could not open bronze file %s", path)
		handler.Logger.Error(err)
		return nil, err
	}
	return f, nil
}
