package source

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// S3Loader reads the same per-instrument CSV layout as Loader, but from an
// object-store prefix instead of a local directory. Team candle exports land
// in the bucket, so a backtest host never needs the files synced locally.
type S3Loader struct {
	reader domain.BlobReader
	prefix string
	logger *slog.Logger
}

// NewS3Loader creates a loader over the given prefix.
func NewS3Loader(reader domain.BlobReader, prefix string, logger *slog.Logger) *S3Loader {
	return &S3Loader{
		reader: reader,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger.With(slog.String("component", "source")),
	}
}

// LoadAll loads every instrument object under the prefix. Objects that fail
// to parse or validate are logged and skipped, same as the local loader.
func (l *S3Loader) LoadAll(ctx context.Context) ([]domain.Series, error) {
	infos, err := l.reader.List(ctx, l.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("source: list %s: %w", l.prefix, err)
	}

	settlements, err := l.loadSettlements(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Series
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := path.Base(info.Path)
		if !strings.HasSuffix(name, ".csv") || name == settlementsFile {
			continue
		}
		s, err := l.LoadSeries(ctx, info.Path)
		if err != nil {
			l.logger.Warn("skipping instrument object",
				slog.String("path", info.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if v, ok := settlements[s.InstrumentID]; ok {
			s.Settlement = &v
		}
		out = append(out, s)
	}
	l.logger.Info("series loaded",
		slog.String("prefix", l.prefix),
		slog.Int("instruments", len(out)),
	)
	return out, nil
}

// LoadSeries reads and normalizes one instrument object. The instrument ID
// is the object base name without extension.
func (l *S3Loader) LoadSeries(ctx context.Context, objectPath string) (domain.Series, error) {
	body, err := l.reader.Get(ctx, objectPath)
	if err != nil {
		return domain.Series{}, fmt.Errorf("source: get %s: %w", objectPath, err)
	}
	defer body.Close()

	id := strings.TrimSuffix(path.Base(objectPath), ".csv")
	s, err := parseSeries(id, body)
	if err != nil {
		return domain.Series{}, err
	}
	if err := s.Validate(); err != nil {
		return domain.Series{}, err
	}
	return FillGaps(s), nil
}

func (l *S3Loader) loadSettlements(ctx context.Context) (map[string]float64, error) {
	key := l.prefix + "/" + settlementsFile
	ok, err := l.reader.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("source: head %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	body, err := l.reader.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("source: get %s: %w", key, err)
	}
	defer body.Close()

	return parseSettlements(body)
}
