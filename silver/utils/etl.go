package utils

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/CMSgov/desynpuf-etl/log"
)

// DeleteDirectoryContents removes every entry under dirToDelete, leaving the
// directory itself in place. The sink relies on it for full-overwrite writes.
func DeleteDirectoryContents(dirToDelete string) (filesDeleted int, err error) {
	log.Sink.Infof("Preparing to delete directory %v", dirToDelete)
	f, err := os.Open(filepath.Clean(dirToDelete))
	if err != nil {
		err = errors.Wrapf(err, "could not open dir: %s", dirToDelete)
		log.Sink.Error(err)
		return 0, err
	}
	files, err := f.Readdir(-1)
	if err != nil {
		err = errors.Wrapf(err, "error reading files from dir: %s", f.Name())
		log.Sink.Error(err)
		return 0, err
	}
	if err = f.Close(); err != nil {
		err = errors.Wrapf(err, "error closing dir: %s", f.Name())
		log.Sink.Error(err)
		return 0, err
	}

	for _, file := range files {
		log.Sink.Infof("deleting %s", file.Name())
		err = os.RemoveAll(filepath.Join(dirToDelete, file.Name()))
		if err != nil {
			err = errors.Wrapf(err, "error deleting %s from dir: %s", file.Name(), dirToDelete)
			log.Sink.Error(err)
			return 0, err
		}
	}

	log.Sink.Infof("Successfully deleted all files from dir: %s", dirToDelete)
	return len(files), nil
}
