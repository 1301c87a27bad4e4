// Package journal appends recorded route points to a local SQLite file so a run
// interrupted before completion can be inspected or recomputed later.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"backend-fitquest/internal/session"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
}

// SessionInfo describes one journaled run.
type SessionInfo struct {
	SessionID   string `json:"session_id"`
	Points      int    `json:"points"`
	FirstMillis int64  `json:"first_timestamp"`
	LastMillis  int64  `json:"last_timestamp"`
}

func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one writer; WAL lets readers (runsim journal show) proceed alongside it
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS route_points (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  latitude REAL NOT NULL,
  longitude REAL NOT NULL,
  timestamp_ms INTEGER NOT NULL,
  altitude REAL,
  accuracy REAL,
  heading REAL,
  speed REAL
);
CREATE INDEX IF NOT EXISTS idx_route_points_session ON route_points(session_id, id);
`
	if _, err := j.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create route_points table: %w", err)
	}
	return nil
}

func (j *Journal) Append(ctx context.Context, sessionID string, p session.RoutePoint) error {
	_, err := j.db.ExecContext(ctx, `
INSERT INTO route_points (session_id, latitude, longitude, timestamp_ms, altitude, accuracy, heading, speed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.Latitude, p.Longitude, p.Timestamp,
		nullable(p.Altitude), nullable(p.Accuracy), nullable(p.Heading), nullable(p.Speed))
	if err != nil {
		return fmt.Errorf("append point: %w", err)
	}
	return nil
}

// Load returns a session's points in the order they were appended.
func (j *Journal) Load(ctx context.Context, sessionID string) ([]session.RoutePoint, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT latitude, longitude, timestamp_ms, altitude, accuracy, heading, speed
FROM route_points WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	defer rows.Close()

	points := []session.RoutePoint{}
	for rows.Next() {
		var (
			p                                 session.RoutePoint
			altitude, accuracy, heading, speed sql.NullFloat64
		)
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Timestamp, &altitude, &accuracy, &heading, &speed); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		p.Altitude = floatPtr(altitude)
		p.Accuracy = floatPtr(accuracy)
		p.Heading = floatPtr(heading)
		p.Speed = floatPtr(speed)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT session_id, COUNT(*), MIN(timestamp_ms), MAX(timestamp_ms)
FROM route_points GROUP BY session_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.SessionID, &s.Points, &s.FirstMillis, &s.LastMillis); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *Journal) Clear(ctx context.Context, sessionID string) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM route_points WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
