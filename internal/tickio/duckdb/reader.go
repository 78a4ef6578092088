// Package duckdb loads a tick archive out of a DuckDB-backed tick store,
// an alternate TickStore source to the memory-mapped binary path.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

var validSymbol = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{dataSourceName: dataSourceName}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("duckdb: open %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// LoadTicks returns every tick for symbol within [from, to], ordered by
// timestamp, ready to seed a TickStore.
func (r *Reader) LoadTicks(ctx context.Context, symbol string, from, to time.Time) ([]model.Tick, error) {
	if !validSymbol.MatchString(symbol) {
		return nil, fmt.Errorf("duckdb: invalid symbol %q", symbol)
	}
	query := fmt.Sprintf(`SELECT ts, bid, ask, volume, flags FROM %s_ticks WHERE ts BETWEEN ? AND ? ORDER BY ts`, symbol)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query: %w", err)
	}
	defer rows.Close()

	var ticks []model.Tick
	for rows.Next() {
		var ts time.Time
		var bid, ask, volume float64
		var flags int

		if err := rows.Scan(&ts, &bid, &ask, &volume, &flags); err != nil {
			return nil, fmt.Errorf("duckdb: scan row: %w", err)
		}

		ticks = append(ticks, model.Tick{
			TimeStamp: ts.UnixNano(),
			Bid:       fixed.FromFloat64(bid),
			Ask:       fixed.FromFloat64(ask),
			Volume:    fixed.FromFloat64(volume),
			Flags:     model.Flags(flags),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb: iterate rows: %w", err)
	}
	return ticks, nil
}
