// Package archive moves trade-log entries past their retention window
// from PostgreSQL into object storage, and reads them back for reports.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// batchPrefix roots every archived batch key.
const batchPrefix = "trades/"

// defaultMultipartLimit is the payload size above which batches upload in
// parts. It matches the S3 minimum part size.
const defaultMultipartLimit = 5 << 20

// tradeLog is the slice of the trade store the archiver needs: reading
// entries past the cutoff and removing them once safely uploaded.
type tradeLog interface {
	ListBefore(ctx context.Context, cutoff time.Time) ([]domain.ClosedTrade, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver uploads expired trade-log entries as a JSON batch and then
// removes them from the database. Upload strictly precedes delete, and the
// uploaded object is verified to exist before any row is removed, so a
// failed run never loses entries; a rerun re-uploads under a new key.
type Archiver struct {
	trades         tradeLog
	blobs          domain.BlobWriter
	reader         domain.BlobReader
	retentionDays  int
	multipartLimit int
	logger         *slog.Logger
}

// New creates an archiver keeping retentionDays of trades in the database.
func New(trades tradeLog, blobs domain.BlobWriter, reader domain.BlobReader, retentionDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		trades:         trades,
		blobs:          blobs,
		reader:         reader,
		retentionDays:  retentionDays,
		multipartLimit: defaultMultipartLimit,
		logger:         logger.With(slog.String("component", "archiver")),
	}
}

// archivedTrade is the JSON layout of one archived entry.
type archivedTrade struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Price        float64   `json:"price"`
	Amount       float64   `json:"amount"`
	ExecutionRef string    `json:"execution_ref"`
	Timestamp    time.Time `json:"timestamp"`
}

// Run executes one archive pass and returns the number of entries moved.
func (a *Archiver) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.retentionDays)

	trades, err := a.trades.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive: list expired trades: %w", err)
	}
	if len(trades) == 0 {
		a.logger.Info("no trades past retention", slog.Time("cutoff", cutoff))
		return 0, nil
	}

	batch := make([]archivedTrade, 0, len(trades))
	for _, t := range trades {
		batch = append(batch, archivedTrade{
			ID:           t.ID,
			Action:       string(t.Action),
			Price:        t.Price,
			Amount:       t.Amount,
			ExecutionRef: t.ExecutionRef,
			Timestamp:    t.Timestamp,
		})
	}
	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("archive: marshal batch: %w", err)
	}

	key := batchKey(cutoff, time.Now().UTC())
	if len(payload) >= a.multipartLimit {
		err = a.blobs.PutMultipart(ctx, key, bytes.NewReader(payload), int64(a.multipartLimit))
	} else {
		err = a.blobs.Put(ctx, key, bytes.NewReader(payload), "application/json")
	}
	if err != nil {
		return 0, fmt.Errorf("archive: upload batch %s: %w", key, err)
	}

	// Rows are removed only once the batch is confirmed readable.
	exists, err := a.reader.Exists(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("archive: verify batch %s: %w", key, err)
	}
	if !exists {
		return 0, fmt.Errorf("archive: batch %s missing after upload", key)
	}

	deleted, err := a.trades.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive: delete archived trades (batch %s uploaded): %w", key, err)
	}

	a.logger.Info("archive run complete",
		slog.Time("cutoff", cutoff),
		slog.String("key", key),
		slog.Int64("archived", deleted),
	)
	return deleted, nil
}

// ArchivedTrades reads every archived batch back into trade-log entries
// so reports can cover history past the retention window.
func (a *Archiver) ArchivedTrades(ctx context.Context) ([]domain.ClosedTrade, error) {
	infos, err := a.reader.List(ctx, batchPrefix)
	if err != nil {
		return nil, fmt.Errorf("archive: list batches: %w", err)
	}

	var out []domain.ClosedTrade
	for _, info := range infos {
		body, err := a.reader.Get(ctx, info.Path)
		if err != nil {
			return nil, fmt.Errorf("archive: read batch %s: %w", info.Path, err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("archive: read batch %s: %w", info.Path, err)
		}

		var batch []archivedTrade
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("archive: decode batch %s: %w", info.Path, err)
		}
		for _, t := range batch {
			out = append(out, domain.ClosedTrade{
				ID:           t.ID,
				Action:       domain.TradeAction(t.Action),
				Price:        t.Price,
				Amount:       t.Amount,
				ExecutionRef: t.ExecutionRef,
				Timestamp:    t.Timestamp,
			})
		}
	}
	return out, nil
}

// batchKey names a batch by cutoff date and upload time so reruns never
// collide.
func batchKey(cutoff, now time.Time) string {
	return fmt.Sprintf("%s%s/batch-%s.json",
		batchPrefix,
		cutoff.Format("2006-01-02"),
		now.Format("20060102T150405Z"),
	)
}
