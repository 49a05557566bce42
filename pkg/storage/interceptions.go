package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// LogInterception records a redirect or overlay. ID, OccurredAt and Domain
// are filled in when empty.
func (d *DB) LogInterception(ctx context.Context, in Interception) (Interception, error) {
	if in.URL == "" || in.ShowName == "" {
		return in, errors.New("interception needs a url and a show name")
	}
	switch in.Source {
	case SourceNavigation, SourceContent, SourceMessage:
	default:
		return in, errors.New("unknown interception source: " + in.Source)
	}

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}
	in.URL = NormalizeURL(in.URL)
	if in.Domain == "" {
		in.Domain, _ = RegistrableDomain(in.URL)
	}

	_, err := d.sql.ExecContext(ctx, `INSERT INTO interceptions(id, occurred_at, source, url, domain, show_name) VALUES(?,?,?,?,?,?)`,
		in.ID, in.OccurredAt.UTC().Format(time.RFC3339), in.Source, in.URL, nullIfEmpty(in.Domain), in.ShowName)
	return in, err
}

// ListRecentInterceptions returns the most recent N interceptions.
func (d *DB) ListRecentInterceptions(ctx context.Context, limit int) ([]Interception, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT id, occurred_at, source, url, domain, show_name FROM interceptions ORDER BY occurred_at DESC, rowid DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Interception{}
	for rows.Next() {
		var in Interception
		var occurredAtStr string
		var domain sql.NullString
		if err := rows.Scan(&in.ID, &occurredAtStr, &in.Source, &in.URL, &domain, &in.ShowName); err != nil {
			return nil, err
		}
		in.OccurredAt = parseTimestamp(occurredAtStr)
		in.Domain = domain.String
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats counts interceptions per show.
func (d *DB) GetStats(ctx context.Context) ([]ShowStats, error) {
	query := `
		SELECT
			show_name,
			SUM(CASE WHEN source = 'navigation' THEN 1 ELSE 0 END),
			SUM(CASE WHEN source = 'content' THEN 1 ELSE 0 END),
			SUM(CASE WHEN source = 'message' THEN 1 ELSE 0 END),
			COUNT(DISTINCT domain)
		FROM
			interceptions
		GROUP BY
			show_name
		ORDER BY
			show_name;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ShowStats
	for rows.Next() {
		var s ShowStats
		if err := rows.Scan(&s.ShowName, &s.Navigation, &s.Content, &s.Message, &s.DistinctSites); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTimestamp accepts both RFC3339 and the SQLite CURRENT_TIMESTAMP format.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
