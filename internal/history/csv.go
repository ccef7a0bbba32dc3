package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fibo_bot/internal/models"
)

var header = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// CSVStore один csv-файл на инструмент в каталоге dir.
type CSVStore struct {
	dir string
}

var _ Store = (*CSVStore)(nil)

func NewCSV(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history dir %s: %w", dir, err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) path(marketID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(marketID)
	return filepath.Join(s.dir, name+".csv")
}

// Load отсутствующий файл это пустая история, не ошибка.
func (s *CSVStore) Load(_ context.Context, marketID string) (bars []models.PriceBar, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("csv.Load %s: %w", marketID, err)
		}
	}()

	f, err := os.Open(s.path(marketID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 0 && rec[0] == header[0] {
			continue
		}
		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Save перезаписывает файл целиком через временный файл.
func (s *CSVStore) Save(_ context.Context, marketID string, bars []models.PriceBar) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("csv.Save %s: %w", marketID, err)
		}
	}()

	dst := s.path(marketID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			f(b.Open), f(b.High), f(b.Low), f(b.Close), f(b.Volume),
		}); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func parseRow(rec []string) (models.PriceBar, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		// старые выгрузки без зоны
		ts, err = time.Parse("2006-01-02 15:04:05", rec[0])
		if err != nil {
			return models.PriceBar{}, err
		}
	}
	vals := make([]float64, 5)
	for i := range vals {
		if rec[i+1] == "" {
			continue
		}
		vals[i], err = strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("%s: %w", header[i+1], err)
		}
	}
	return models.PriceBar{
		Time:   ts.UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
