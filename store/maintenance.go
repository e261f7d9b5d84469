package store

import (
	"context"
	"fmt"

	"github.com/parcival-labs/ragstore/core"
	"github.com/uptrace/bun"
)

// Statistics aggregates read-only counters over the active table.
type Statistics struct {
	TableName       string  `json:"table_name"`
	TotalDocuments  int64   `json:"total_documents"`
	AvgDimension    float64 `json:"avg_embedding_dimension"`
	WithMetadata    int64   `json:"documents_with_metadata"`
	RecentDocuments int64   `json:"recent_documents_24h"`
}

// IndexUsage reports scan counters for one index from pg_stat_user_indexes.
type IndexUsage struct {
	IndexName     string `bun:"indexrelname" json:"index_name"`
	Scans         int64  `bun:"idx_scan" json:"scans"`
	TuplesRead    int64  `bun:"idx_tup_read" json:"tuples_read"`
	TuplesFetched int64  `bun:"idx_tup_fetch" json:"tuples_fetched"`
}

// HealthReport is the outcome of a health probe. A degraded backend is
// reported through the Status field, not as an error.
type HealthReport struct {
	Status     string       `json:"status"`
	Connection string       `json:"connection"`
	Error      string       `json:"error,omitempty"`
	Statistics *Statistics  `json:"statistics,omitempty"`
	IndexUsage []IndexUsage `json:"index_usage,omitempty"`
}

// Statistics computes monitoring counters for the active table.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	table := s.CurrentTable()
	stats := &Statistics{TableName: table}

	err := s.db.NewRaw("SELECT COUNT(*) FROM ?", bun.Ident(table)).Scan(ctx, &stats.TotalDocuments)
	if err != nil {
		return nil, fmt.Errorf("%w: total count: %w", core.ErrStorage, err)
	}

	var avg *float64
	err = s.db.NewRaw(
		"SELECT AVG(vector_dims(embedding)) FROM ? WHERE embedding IS NOT NULL", bun.Ident(table),
	).Scan(ctx, &avg)
	if err != nil {
		return nil, fmt.Errorf("%w: average dimension: %w", core.ErrStorage, err)
	}
	if avg != nil {
		stats.AvgDimension = *avg
	}

	err = s.db.NewRaw(
		"SELECT COUNT(*) FROM ? WHERE metadata IS NOT NULL AND metadata != '{}'::jsonb", bun.Ident(table),
	).Scan(ctx, &stats.WithMetadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata count: %w", core.ErrStorage, err)
	}

	err = s.db.NewRaw(
		"SELECT COUNT(*) FROM ? WHERE created_at > NOW() - INTERVAL '24 hours'", bun.Ident(table),
	).Scan(ctx, &stats.RecentDocuments)
	if err != nil {
		return nil, fmt.Errorf("%w: recent count: %w", core.ErrStorage, err)
	}

	return stats, nil
}

// Cleanup deletes rows of the active table older than the retention window
// and returns the number removed.
func (s *Store) Cleanup(ctx context.Context, daysOld int) (int64, error) {
	if daysOld < 1 {
		return 0, fmt.Errorf("%w: got %d days", ErrInvalidRetention, daysOld)
	}
	table := s.CurrentTable()

	res, err := s.db.NewRaw(
		"DELETE FROM ? WHERE created_at < NOW() - (? * INTERVAL '1 day')", bun.Ident(table), daysOld,
	).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup of %s: %w", core.ErrStorage, table, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup result: %w", core.ErrStorage, err)
	}

	s.logger.Info("cleaned up old embeddings", "table", table, "deleted", deleted, "days_old", daysOld)
	return deleted, nil
}

// HealthCheck probes connectivity and gathers index-usage counters. It never
// returns an error; a broken backend yields an unhealthy report so callers
// always have something to serve.
func (s *Store) HealthCheck(ctx context.Context) *HealthReport {
	var one int
	if err := s.db.NewRaw("SELECT 1").Scan(ctx, &one); err != nil {
		return &HealthReport{
			Status:     "unhealthy",
			Connection: "failed",
			Error:      err.Error(),
		}
	}

	report := &HealthReport{Status: "healthy", Connection: "ok"}

	stats, err := s.Statistics(ctx)
	if err != nil {
		report.Status = "degraded"
		report.Error = err.Error()
		return report
	}
	report.Statistics = stats

	var usage []IndexUsage
	err = s.db.NewRaw(`
		SELECT indexrelname, idx_scan, idx_tup_read, idx_tup_fetch
		FROM pg_stat_user_indexes
		WHERE relname = ?`, s.CurrentTable(),
	).Scan(ctx, &usage)
	if err != nil {
		report.Status = "degraded"
		report.Error = err.Error()
		return report
	}
	report.IndexUsage = usage

	return report
}
