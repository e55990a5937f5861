package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	pkgch "SignalForge/pkg/clickhouse"
	applogger "SignalForge/pkg/logger"
)

// CHSignalHistory implements SignalHistory backed by the ClickHouse signal
// table, for deployments that want the read API to survive restarts.
type CHSignalHistory struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalHistory(ch *pkgch.Client, table string) *CHSignalHistory {
	return &CHSignalHistory{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSignalHistory) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalHistory) Recent(ctx context.Context, symbol string, n int) ([]*models.Signal, error) {
	start := time.Now()
	if n <= 0 {
		n = 100
	}
	const qtpl = `
        SELECT ts, symbol, strategy, direction, entry, stop, target, score, max_score, factors, session
        FROM %s
        WHERE (? = '' OR symbol = ?)
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_signals query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Signal, 0, n)
	for rows.Next() {
		var sig models.Signal
		var strategy, direction, factors, session string
		if err := rows.Scan(&sig.Timestamp, &sig.Symbol, &strategy, &direction, &sig.EntryPrice, &sig.StopLoss, &sig.TargetPrice, &sig.ConfluenceScore, &sig.ConfluenceMax, &factors, &session); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Strategy = models.StrategyTag(strategy)
		sig.Direction = models.Direction(direction)
		if err := json.Unmarshal([]byte(factors), &sig.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal factors: %w", err)
		}
		if err := json.Unmarshal([]byte(session), &sig.Session); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		out = append(out, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse recent_signals ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.SignalHistory = (*CHSignalHistory)(nil)
