// Package source loads instrument candle series from local CSV exports and
// prepares them for the engine: parse, validate ordering, fill minute gaps.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// settlementsFile maps instrument IDs to resolution values (0 or 100).
const settlementsFile = "settlements.csv"

// Loader reads a directory of per-instrument CSV files. Each file is named
// <instrument>.csv with the header timestamp,open,high,low,close,volume;
// timestamps are RFC3339 or unix seconds.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader over dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{
		dir:    dir,
		logger: logger.With(slog.String("component", "source")),
	}
}

// LoadAll loads every instrument in the directory. Files that fail to parse
// or validate are logged and skipped; one broken export never blocks the
// rest of the data set.
func (l *Loader) LoadAll(ctx context.Context) ([]domain.Series, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("source: read dir %s: %w", l.dir, err)
	}

	settlements, err := l.loadSettlements()
	if err != nil {
		return nil, err
	}

	var out []domain.Series
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || name == settlementsFile {
			continue
		}
		s, err := l.LoadSeries(filepath.Join(l.dir, name))
		if err != nil {
			l.logger.Warn("skipping instrument file",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if v, ok := settlements[s.InstrumentID]; ok {
			s.Settlement = &v
		}
		out = append(out, s)
	}
	l.logger.Info("series loaded", slog.Int("instruments", len(out)))
	return out, nil
}

// LoadSeries reads and normalizes one instrument file. The instrument ID is
// the file name without extension.
func (l *Loader) LoadSeries(path string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), ".csv")
	s, err := parseSeries(id, f)
	if err != nil {
		return domain.Series{}, err
	}
	if err := s.Validate(); err != nil {
		return domain.Series{}, err
	}
	return FillGaps(s), nil
}

func parseSeries(id string, r io.Reader) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	header, err := cr.Read()
	if err != nil {
		return domain.Series{}, fmt.Errorf("source: %s: read header: %w", id, err)
	}
	if strings.ToLower(header[0]) != "timestamp" {
		return domain.Series{}, fmt.Errorf("source: %s: unexpected header %q", id, header[0])
	}

	var candles []domain.Candle
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Series{}, fmt.Errorf("source: %s line %d: %w", id, line, err)
		}
		c, err := parseCandle(id, row)
		if err != nil {
			return domain.Series{}, fmt.Errorf("source: %s line %d: %w", id, line, err)
		}
		candles = append(candles, c)
	}
	return domain.Series{InstrumentID: id, Candles: candles}, nil
}

func parseCandle(id string, row []string) (domain.Candle, error) {
	ts, err := parseTimestamp(row[0])
	if err != nil {
		return domain.Candle{}, err
	}
	vals := make([]float64, 4)
	for i, field := range row[1:5] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse price %q: %w", field, err)
		}
		vals[i] = v
	}
	vol, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse volume %q: %w", row[5], err)
	}
	return domain.Candle{
		InstrumentID: id,
		TS:           ts,
		Open:         vals[0], High: vals[1], Low: vals[2], Close: vals[3],
		Volume: vol,
	}, nil
}

func parseTimestamp(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, field)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", field, err)
	}
	return ts.UTC(), nil
}

// FillGaps inserts synthetic candles for missing minutes, carrying the last
// close forward with zero volume. Policies measure look-back in minutes, so
// the window has to be dense for index offsets to mean what they say.
func FillGaps(s domain.Series) domain.Series {
	if len(s.Candles) < 2 {
		return s
	}
	out := make([]domain.Candle, 0, len(s.Candles))
	out = append(out, s.Candles[0])
	for _, c := range s.Candles[1:] {
		prev := out[len(out)-1]
		for next := prev.TS.Add(time.Minute); next.Before(c.TS); next = next.Add(time.Minute) {
			out = append(out, domain.Candle{
				InstrumentID: s.InstrumentID,
				TS:           next,
				Open:         prev.Close, High: prev.Close, Low: prev.Close, Close: prev.Close,
			})
			prev = out[len(out)-1]
		}
		out = append(out, c)
	}
	s.Candles = out
	return s
}

// loadSettlements reads the optional settlements file. A missing file means
// no instrument has a known outcome.
func (l *Loader) loadSettlements() (map[string]float64, error) {
	path := filepath.Join(l.dir, settlementsFile)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	return parseSettlements(f)
}

func parseSettlements(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	if _, err := cr.Read(); err != nil { // header
		return nil, fmt.Errorf("source: %s: read header: %w", settlementsFile, err)
	}

	out := make(map[string]float64)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", settlementsFile, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("source: %s: parse value %q: %w", settlementsFile, row[1], err)
		}
		out[strings.TrimSpace(row[0])] = v
	}
	return out, nil
}
