package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juankaspain/vuelosrobot-sub000/internal/deals"
	"github.com/juankaspain/vuelosrobot-sub000/internal/flight"
	"github.com/juankaspain/vuelosrobot-sub000/internal/history"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertHistorySQL = `INSERT INTO price_history (
        route_key,
        origin,
        destination,
        travel_date,
        price,
        currency,
        source,
        confidence,
        observed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    );`

	listHistorySinceSQL = `SELECT
        origin,
        destination,
        travel_date,
        price,
        source,
        confidence,
        observed_at
    FROM price_history
    WHERE route_key = $1
      AND observed_at >= $2
    ORDER BY observed_at;`

	deleteHistoryBeforeSQL = `DELETE FROM price_history WHERE observed_at < $1;`

	countHistorySQL = `SELECT COUNT(*) FROM price_history;`

	insertDealSQL = `INSERT INTO deal_events (
        route_key,
        travel_date,
        price,
        historical_mean,
        savings_pct,
        source,
        notified_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    ) RETURNING id, created_at;`

	listRecentDealsSQL = `SELECT
        id,
        route_key,
        travel_date,
        price,
        historical_mean,
        savings_pct,
        source,
        notified_at,
        created_at
    FROM deal_events
    ORDER BY notified_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// Store is the pgx-backed persistence layer: it implements the history
// PersistenceSink and records emitted deal events for auditing.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Append persists one history record.
func (s *Store) Append(ctx context.Context, rec history.Record) error {
	if s.pool == nil {
		return ErrNotConfigured
	}

	_, err := s.pool.Exec(ctx, insertHistorySQL,
		rec.Route.Key(),
		rec.Route.Origin,
		rec.Route.Destination,
		rec.TravelDate,
		rec.Price,
		"EUR",
		rec.Source,
		rec.Confidence,
		rec.ObservedAt,
	)
	return err
}

// List returns a route's history records observed at or after since.
func (s *Store) List(ctx context.Context, routeKey string, since time.Time) ([]history.Record, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, listHistorySinceSQL, routeKey, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		var origin, destination string
		if err := rows.Scan(
			&origin,
			&destination,
			&rec.TravelDate,
			&rec.Price,
			&rec.Source,
			&rec.Confidence,
			&rec.ObservedAt,
		); err != nil {
			return nil, err
		}
		route, err := flight.NewRoute(origin, destination)
		if err != nil {
			return nil, err
		}
		rec.Route = route
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteHistoryBefore prunes records older than the retention horizon.
func (s *Store) DeleteHistoryBefore(ctx context.Context, olderThan time.Time) error {
	if s.pool == nil {
		return ErrNotConfigured
	}
	_, err := s.pool.Exec(ctx, deleteHistoryBeforeSQL, olderThan)
	return err
}

// CountHistory reports the total number of persisted records.
func (s *Store) CountHistory(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, ErrNotConfigured
	}
	var count int64
	err := s.pool.QueryRow(ctx, countHistorySQL).Scan(&count)
	return count, err
}

// InsertDeal records an emitted deal event.
func (s *Store) InsertDeal(ctx context.Context, event deals.Event) error {
	if s.pool == nil {
		return ErrNotConfigured
	}

	var id int64
	var createdAt time.Time
	return s.pool.QueryRow(ctx, insertDealSQL,
		event.Route.Key(),
		event.Quote.TravelDate,
		event.Quote.Price,
		event.HistoricalMean,
		event.SavingsPct,
		event.Quote.Source,
		event.NotifiedAt,
	).Scan(&id, &createdAt)
}

// ListRecentDeals returns persisted deal events, newest first.
func (s *Store) ListRecentDeals(ctx context.Context, limit int) ([]DealRow, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, listRecentDealsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DealRow
	for rows.Next() {
		var row DealRow
		if err := rows.Scan(
			&row.ID,
			&row.RouteKey,
			&row.TravelDate,
			&row.Price,
			&row.HistoricalMean,
			&row.SavingsPct,
			&row.Source,
			&row.NotifiedAt,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TryAdvisoryLock takes a session-scoped Postgres advisory lock so only one
// scanner instance runs a given cycle. The returned unlock releases it.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error) {
	if s.pool == nil {
		return nil, false, ErrNotConfigured
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock = func() {
		_, _ = conn.Exec(context.Background(), advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

var _ history.PersistenceSink = (*Store)(nil)
