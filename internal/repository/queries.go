package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type AssetRow struct {
	ID         int32
	Ticker     string
	Name       string
	Type       string
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

const getAssetByTicker = `
SELECT id, ticker, name, type, created_at, modified_at
FROM assets
WHERE ticker = $1
LIMIT 1`

func (q *Queries) GetAssetByTicker(ctx context.Context, ticker string) (AssetRow, error) {
	row := q.db.QueryRow(ctx, getAssetByTicker, ticker)
	var i AssetRow
	err := row.Scan(
		&i.ID,
		&i.Ticker,
		&i.Name,
		&i.Type,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

// Bars are stored at minute resolution in a TimescaleDB hypertable and
// aggregated on the fly. close stays nullable so a bucket whose last close is
// NULL surfaces as such instead of zero.
const getAggregates = `
SELECT time_bucket($1::interval, timestamp) AS bucket,
       asset_id,
       first(open, timestamp)  AS open,
       max(high)               AS high,
       min(low)                AS low,
       last(close, timestamp)  AS close,
       sum(volume)             AS volume,
       sum(volume * close)     AS quote_volume
FROM candles
WHERE asset_id = $2
  AND timestamp >= $3
  AND ($4::timestamptz IS NULL OR timestamp < $4)
GROUP BY bucket, asset_id
ORDER BY bucket`

type GetAggregatesParams struct {
	TimeBucket string
	AssetID    int32
	Starttime  *time.Time
	Endtime    *time.Time
}

type GetAggregatesRow struct {
	Bucket      *time.Time
	AssetID     int32
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.NullDecimal
	Volume      decimal.Decimal
	QuoteVolume decimal.NullDecimal
}

func (q *Queries) GetAggregates(ctx context.Context, arg GetAggregatesParams) ([]GetAggregatesRow, error) {
	rows, err := q.db.Query(ctx, getAggregates,
		arg.TimeBucket,
		arg.AssetID,
		arg.Starttime,
		arg.Endtime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetAggregatesRow
	for rows.Next() {
		var i GetAggregatesRow
		if err := rows.Scan(
			&i.Bucket,
			&i.AssetID,
			&i.Open,
			&i.High,
			&i.Low,
			&i.Close,
			&i.Volume,
			&i.QuoteVolume,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
