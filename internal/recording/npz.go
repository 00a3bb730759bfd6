package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio/npy"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"myonorm/internal/emgerr"
)

// DataKey is the archive entry holding the channel x sample matrix.
const DataKey = "data"

// Extensions accepted by ReadFile.
const (
	ExtNPZ = ".npz"
	ExtNPY = ".npy"
)

// ReadFile loads a recording from a .npz archive (entry "data", or the only
// entry) or a bare .npy array. The array must be 2-D float64 shaped
// [channels, samples]. Metadata is parsed from the file name.
func ReadFile(path string, sampleRate float64) (*Recording, error) {
	name := filepath.Base(path)
	meta, err := ParseFilename(name)
	if err != nil {
		return nil, err
	}
	var (
		shape   []int
		fortran bool
		flat    []float64
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtNPZ:
		shape, fortran, flat, err = readNPZ(path)
	case ExtNPY:
		shape, fortran, flat, err = readNPY(path)
	default:
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "read",
			fmt.Sprintf("%s: unsupported extension", name), nil)
	}
	if err != nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "read", name, err)
	}
	rows, err := reshape(shape, fortran, flat)
	if err != nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "read", name, err)
	}
	return New(name, meta, sampleRate, rows)
}

func readNPZ(path string) ([]int, bool, []float64, error) {
	archive, err := npz.Open(path)
	if err != nil {
		return nil, false, nil, err
	}
	defer archive.Close()

	key, err := dataKey(archive.Keys())
	if err != nil {
		return nil, false, nil, err
	}
	hdr := archive.Header(key)
	if hdr == nil {
		return nil, false, nil, fmt.Errorf("missing header for %q", key)
	}
	var flat []float64
	if err := archive.Read(key, &flat); err != nil {
		return nil, false, nil, fmt.Errorf("read %q: %w", key, err)
	}
	return hdr.Descr.Shape, hdr.Descr.Fortran, flat, nil
}

func dataKey(keys []string) (string, error) {
	for _, key := range keys {
		if strings.TrimSuffix(key, ExtNPY) == DataKey {
			return key, nil
		}
	}
	if len(keys) == 1 {
		return keys[0], nil
	}
	return "", fmt.Errorf("archive has no %q entry (entries: %s)", DataKey, strings.Join(keys, ", "))
}

func readNPY(path string) ([]int, bool, []float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, nil, err
	}
	defer file.Close()

	reader, err := npy.NewReader(file)
	if err != nil {
		return nil, false, nil, err
	}
	var flat []float64
	if err := reader.Read(&flat); err != nil {
		return nil, false, nil, err
	}
	return reader.Header.Descr.Shape, reader.Header.Descr.Fortran, flat, nil
}

func reshape(shape []int, fortran bool, flat []float64) ([][]float64, error) {
	if len(shape) != 2 {
		return nil, fmt.Errorf("expected a 2-D [channels, samples] array, got shape %v", shape)
	}
	channels, samples := shape[0], shape[1]
	if channels*samples != len(flat) {
		return nil, fmt.Errorf("shape %v does not match %d values", shape, len(flat))
	}
	rows := make([][]float64, channels)
	for c := range rows {
		if !fortran {
			rows[c] = flat[c*samples : (c+1)*samples : (c+1)*samples]
			continue
		}
		row := make([]float64, samples)
		for s := range row {
			row[s] = flat[s*channels+c]
		}
		rows[c] = row
	}
	return rows, nil
}

// WriteNPZ stores rows (all the same length) as a 2-D "data" entry in a new
// .npz archive at path.
func WriteNPZ(path string, rows [][]float64) error {
	if len(rows) == 0 {
		return emgerr.Wrap(emgerr.ErrInsufficientData, "recording", "write", "no rows to write", nil)
	}
	samples := len(rows[0])
	flat := make([]float64, 0, len(rows)*samples)
	for i, row := range rows {
		if len(row) != samples {
			return emgerr.Wrap(emgerr.ErrConfiguration, "recording", "write",
				fmt.Sprintf("row %d has %d samples, row 0 has %d", i, len(row), samples), nil)
		}
		flat = append(flat, row...)
	}
	if samples == 0 {
		return emgerr.Wrap(emgerr.ErrInsufficientData, "recording", "write", "rows are empty", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	archive, err := npz.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := archive.Write(DataKey, mat.NewDense(len(rows), samples, flat)); err != nil {
		archive.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := archive.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteFile stores rec in dir under its own name with an .npz extension.
func WriteFile(dir string, rec *Recording) (string, error) {
	base := strings.TrimSuffix(rec.Name(), filepath.Ext(rec.Name()))
	path := filepath.Join(dir, base+ExtNPZ)
	if err := WriteNPZ(path, rec.Rows()); err != nil {
		return "", err
	}
	return path, nil
}
