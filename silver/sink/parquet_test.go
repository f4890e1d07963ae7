package sink

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type testRow struct {
	ID    string  `parquet:"id"`
	Year  int32   `parquet:"year"`
	Value float64 `parquet:"value"`
}

func testWriter(t *testing.T) Writer {
	return Writer{Root: t.TempDir(), Logger: logrus.New()}
}

func yearPartition(r testRow) []Partition {
	return []Partition{{Key: "year", Value: strconv.Itoa(int(r.Year))}}
}

func TestWriteDatasetPartitionLayout(t *testing.T) {
	w := testWriter(t)
	rows := []testRow{
		{ID: "a", Year: 2008, Value: 1.5},
		{ID: "b", Year: 2009, Value: 2.5},
		{ID: "c", Year: 2008, Value: 3.5},
	}

	written, err := WriteDataset(w, "claims_unified", rows, yearPartition)
	assert.NoError(t, err)
	assert.Equal(t, 3, written)

	assert.FileExists(t, filepath.Join(w.Root, "claims_unified", "year=2008", "part-00000.parquet"))
	assert.FileExists(t, filepath.Join(w.Root, "claims_unified", "year=2009", "part-00000.parquet"))
}

func TestWriteDatasetReadBack(t *testing.T) {
	w := testWriter(t)
	rows := []testRow{
		{ID: "a", Year: 2008, Value: 1.5},
		{ID: "c", Year: 2008, Value: 3.5},
	}

	_, err := WriteDataset(w, "claims_unified", rows, yearPartition)
	assert.NoError(t, err)

	got, err := parquet.ReadFile[testRow](filepath.Join(w.Root, "claims_unified", "year=2008", "part-00000.parquet"))
	assert.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteDatasetOverwritesPriorRun(t *testing.T) {
	w := testWriter(t)

	stale := []testRow{{ID: "old", Year: 2007, Value: 9.9}}
	_, err := WriteDataset(w, "claims_unified", stale, yearPartition)
	assert.NoError(t, err)
	assert.DirExists(t, filepath.Join(w.Root, "claims_unified", "year=2007"))

	fresh := []testRow{{ID: "new", Year: 2008, Value: 1.0}}
	_, err = WriteDataset(w, "claims_unified", fresh, yearPartition)
	assert.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(w.Root, "claims_unified", "year=2007"))
	assert.FileExists(t, filepath.Join(w.Root, "claims_unified", "year=2008", "part-00000.parquet"))
}

func TestWriteDatasetEmptyRows(t *testing.T) {
	w := testWriter(t)

	written, err := WriteDataset(w, "claims_unified", []testRow{}, yearPartition)
	assert.NoError(t, err)
	assert.Equal(t, 0, written)

	// The dataset location exists but holds no part files
	entries, err := os.ReadDir(filepath.Join(w.Root, "claims_unified"))
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteDatasetMultiKeyPartitions(t *testing.T) {
	w := testWriter(t)
	rows := []testRow{{ID: "a", Year: 2008, Value: 1.0}}

	_, err := WriteDataset(w, "claims_unified", rows, func(r testRow) []Partition {
		return []Partition{
			{Key: "claim_year", Value: strconv.Itoa(int(r.Year))},
			{Key: "claim_type", Value: "inpatient"},
		}
	})
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(w.Root, "claims_unified", "claim_year=2008", "claim_type=inpatient", "part-00000.parquet"))
}
