// Package sink persists silver datasets as snappy-compressed parquet files
// under hive-style partition directories. Every write is a full overwrite of
// the dataset's location, which keeps reruns idempotent; retention of prior
// runs is the orchestration layer's problem, not ours.
package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/desynpuf-etl/silver/ers"
	"github.com/CMSgov/desynpuf-etl/silver/utils"
)

// Writer materializes datasets under Root. The target location of a dataset
// is derived from its name alone.
type Writer struct {
	Root   string
	Logger logrus.FieldLogger
}

// A Partition is one key=value pair of a row's partition path.
type Partition struct {
	Key   string
	Value string
}

// WriteDataset overwrites the named dataset with the given rows, grouped into
// one parquet part file per distinct partition tuple. Partition directories
// appear in first-seen row order. Returns the number of rows written.
func WriteDataset[T any](w Writer, dataset string, rows []T, partitionBy func(T) []Partition) (int, error) {
	dir := filepath.Join(w.Root, dataset)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, &ers.WriteFailureError{Dataset: dataset, Err: err}
	}

	// Full overwrite: the prior run's output is removed in its entirety.
	if _, err := utils.DeleteDirectoryContents(dir); err != nil {
		return 0, &ers.WriteFailureError{Dataset: dataset, Err: err}
	}

	groups := make(map[string][]T)
	var order []string
	for _, row := range rows {
		rel := partitionPath(partitionBy(row))
		if _, seen := groups[rel]; !seen {
			order = append(order, rel)
		}
		groups[rel] = append(groups[rel], row)
	}

	written := 0
	for _, rel := range order {
		if err := writePart(filepath.Join(dir, rel), groups[rel]); err != nil {
			return written, &ers.WriteFailureError{Dataset: dataset, Err: err}
		}
		written += len(groups[rel])
	}

	w.Logger.WithFields(logrus.Fields{"dataset": dataset, "rows": written, "partitions": len(order)}).
		Infof("Wrote dataset %s to %s", dataset, dir)
	return written, nil
}

func partitionPath(partitions []Partition) string {
	rel := ""
	for _, p := range partitions {
		rel = filepath.Join(rel, fmt.Sprintf("%s=%s", p.Key, p.Value))
	}
	return rel
}

func writePart[T any](dir string, rows []T) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrapf(err, "could not create partition dir %s", dir)
	}

	name := filepath.Join(dir, "part-00000.parquet")
	file, err := os.Create(filepath.Clean(name))
	if err != nil {
		return errors.Wrapf(err, "could not create part file %s", name)
	}

	writer := parquet.NewGenericWriter[T](file, parquet.Compression(&snappy.Codec{}))
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return errors.Wrapf(err, "could not write rows to %s", name)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return errors.Wrapf(err, "could not close parquet writer for %s", name)
	}
	return file.Close()
}
