package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// TradeLogArchiveStore is the slice of the trade-log store the archiver
// needs: reading aged rows and dropping them once safely uploaded.
type TradeLogArchiveStore interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]domain.TradeLogEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TradeLogArchiver implements domain.Archiver. It serializes aged trade-log
// rows to JSONL, uploads the file to object storage, verifies the object
// landed, and only then deletes the rows from the primary store.
type TradeLogArchiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	store  TradeLogArchiveStore
	logger *slog.Logger
}

// NewTradeLogArchiver creates a new TradeLogArchiver.
func NewTradeLogArchiver(writer domain.BlobWriter, reader domain.BlobReader, store TradeLogArchiveStore, logger *slog.Logger) *TradeLogArchiver {
	return &TradeLogArchiver{
		writer: writer,
		reader: reader,
		store:  store,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveTradeLog archives all trade-log rows created before the cutoff to
// archive/tradelog/YYYY-MM-DD.jsonl and removes them from the database.
// Returns the number of rows archived.
func (a *TradeLogArchiver) ArchiveTradeLog(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trade log query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trade log marshal: %w", err)
	}

	path := archivePath(before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive trade log upload: %w", err)
	}

	// Confirm the object exists before touching the database. Rows are
	// deleted only once the archive is durable.
	ok, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trade log verify: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: archive trade log verify: object %s missing after upload", path)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(entries)), fmt.Errorf("s3blob: archive trade log prune: %w", err)
	}

	a.logger.Info("trade log archived",
		slog.String("path", path),
		slog.Int("archived", len(entries)),
		slog.Int64("deleted", deleted))

	return int64(len(entries)), nil
}

// ListArchives returns metadata for every archived trade-log day.
func (a *TradeLogArchiver) ListArchives(ctx context.Context) ([]domain.BlobInfo, error) {
	infos, err := a.reader.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("s3blob: list archives: %w", err)
	}
	return infos, nil
}

// LoadArchive reads one archived day back from cold storage, for inspection
// or replay. A day with no archive yields domain.ErrNotFound.
func (a *TradeLogArchiver) LoadArchive(ctx context.Context, day time.Time) ([]domain.TradeLogEntry, error) {
	path := archivePath(day)
	body, err := a.reader.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("s3blob: load archive %s: %w", path, err)
	}
	defer body.Close()

	var entries []domain.TradeLogEntry
	dec := json.NewDecoder(body)
	for dec.More() {
		var e domain.TradeLogEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("s3blob: load archive %s: decode: %w", path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Run archives on a fixed interval until the context is cancelled. Rows
// older than the retention window move to cold storage each pass.
func (a *TradeLogArchiver) Run(ctx context.Context, interval time.Duration, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			if _, err := a.ArchiveTradeLog(ctx, cutoff); err != nil {
				a.logger.Error("archive pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

const archivePrefix = "archive/tradelog/"

// archivePath builds the S3 key for an archive file, partitioned by the
// cutoff date.
//
//	archive/tradelog/2026-08-28.jsonl
func archivePath(before time.Time) string {
	return fmt.Sprintf("%s%s.jsonl", archivePrefix, before.Format("2006-01-02"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*TradeLogArchiver)(nil)
