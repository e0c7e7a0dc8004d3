// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/logging"
	"github.com/storewatch/storewatch/internal/models"
)

// PostgresStore implements AppStore and AlertStore on a pgx connection
// pool. The upstream app database is PostgreSQL; reads and writes here
// may run concurrently with unrelated writers of the same tables, which
// is safe because every update is a single idempotent statement.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool against the configured database and verifies
// connectivity within the configured timeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().Str("component", "store").Msg("database connected")
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. Used by tests and by callers
// that manage pool lifecycle themselves.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping verifies database connectivity, backing the readiness endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InitSchema creates the storewatch tables and indexes if absent.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS apps (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL,
			package_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			alert_group TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Online',
			last_check TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			app_name TEXT NOT NULL,
			package_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			alert_group TEXT NOT NULL,
			alert_time TIMESTAMPTZ NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_apps_status ON apps(status)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_alert_time ON alerts(alert_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_alert_group ON alerts(alert_group)`,
	}

	for _, query := range queries {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

const appSelectColumns = `id, name, package_id, platform,
	region, alert_group, status, last_check`

// ListAppsByStatus returns all apps with the given status in id order.
func (s *PostgresStore) ListAppsByStatus(ctx context.Context, status models.AppStatus) ([]models.WatchedApp, error) {
	query := fmt.Sprintf(`SELECT %s FROM apps WHERE status = $1 ORDER BY id`, appSelectColumns)

	rows, err := s.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query apps: %w", err)
	}
	defer rows.Close()

	return scanApps(rows)
}

// ListApps returns all apps regardless of status, in id order.
func (s *PostgresStore) ListApps(ctx context.Context) ([]models.WatchedApp, error) {
	query := fmt.Sprintf(`SELECT %s FROM apps ORDER BY id`, appSelectColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query apps: %w", err)
	}
	defer rows.Close()

	return scanApps(rows)
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanApp scans a single app row.
func scanApp(scanner rowScanner, app *models.WatchedApp) error {
	return scanner.Scan(
		&app.ID,
		&app.Name,
		&app.PackageID,
		&app.Platform,
		&app.Region,
		&app.AlertGroup,
		&app.Status,
		&app.LastCheck,
	)
}

// scanApps scans all app rows.
func scanApps(rows interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}) ([]models.WatchedApp, error) {
	var apps []models.WatchedApp
	for rows.Next() {
		var app models.WatchedApp
		if err := scanApp(rows, &app); err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateLastCheck refreshes last_check for a still-live app. Idempotent:
// re-running with the same or a later timestamp converges to the same row.
func (s *PostgresStore) UpdateLastCheck(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE apps SET last_check = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last_check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("app %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkRemoved sets status=Removed and last_check in a single statement,
// so a partially applied removal transition is impossible.
func (s *PostgresStore) MarkRemoved(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE apps SET status = $1, last_check = $2 WHERE id = $3`,
		models.StatusRemoved, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark app removed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("app %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertAlert appends one alert event and fills in the generated ID.
func (s *PostgresStore) InsertAlert(ctx context.Context, alert *models.AlertEvent) error {
	query := `INSERT INTO alerts
		(app_name, package_id, platform, region, alert_group, alert_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		alert.AppName,
		alert.PackageID,
		alert.Platform,
		alert.Region,
		alert.AlertGroup,
		alert.AlertTime,
	).Scan(&alert.ID)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// defaultAlertLimit bounds unfiltered alert listings.
const defaultAlertLimit = 100

// ListAlerts returns alerts matching the filter, newest first.
func (s *PostgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertEvent, error) {
	query, args := buildAlertQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertEvent
	for rows.Next() {
		var alert models.AlertEvent
		if err := rows.Scan(
			&alert.ID,
			&alert.AppName,
			&alert.PackageID,
			&alert.Platform,
			&alert.Region,
			&alert.AlertGroup,
			&alert.AlertTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// buildAlertQuery constructs the parameterized SQL for alert filtering.
// All user values go through positional parameters.
func buildAlertQuery(filter AlertFilter) (string, []any) {
	query := `SELECT id, app_name, package_id, platform, region, alert_group, alert_time
		FROM alerts WHERE 1=1`
	args := make([]any, 0, 4)

	if filter.Group != "" {
		args = append(args, filter.Group)
		query += fmt.Sprintf(" AND alert_group = $%d", len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(" AND alert_time >= $%d", len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		query += fmt.Sprintf(" AND alert_time <= $%d", len(args))
	}

	query += " ORDER BY alert_time DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}
