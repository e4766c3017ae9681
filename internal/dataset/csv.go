package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadCSV loads MNIST from a CSV file in the Kaggle layout:
// an optional header row, then one row per sample with the label followed by
// Rows*Cols pixel values (0-255). maxSamples <= 0 loads every row.
func LoadCSV(path string, maxSamples int) (*InMemory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	ds, err := ReadCSV(file, maxSamples)
	return ds, errors.Wrapf(err, "%s", path)
}

// ReadCSV parses the CSV layout described in LoadCSV from r.
func ReadCSV(r io.Reader, maxSamples int) (*InMemory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 1 + Rows*Cols
	reader.ReuseRecord = true

	var (
		images [][]uint8
		labels []uint8
	)
	for line := 1; maxSamples <= 0 || len(images) < maxSamples; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		label, err := strconv.ParseUint(record[0], 10, 8)
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, errors.Wrapf(err, "line %d: label", line)
		}

		pixels := make([]uint8, Rows*Cols)
		for i, field := range record[1:] {
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: pixel %d", line, i)
			}
			pixels[i] = uint8(v)
		}
		images = append(images, pixels)
		labels = append(labels, uint8(label))
	}

	return NewInMemory(Rows, Cols, images, labels)
}
