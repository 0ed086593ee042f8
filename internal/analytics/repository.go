package analytics

import (
	"context"
	"database/sql"
)

// Repo persists day buckets to the 'analytics_daily' table so dashboard
// totals survive restarts.
type Repo struct{ DB *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{DB: db} }

// Upsert writes a bucket's current state, replacing any previous row for the
// same day.
func (r *Repo) Upsert(ctx context.Context, b Bucket) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO analytics_daily (day, revenue, bookings) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE revenue=VALUES(revenue), bookings=VALUES(bookings)`,
		b.Date, b.Revenue, b.Bookings)
	return err
}

// All loads every persisted bucket ordered by day.
func (r *Repo) All(ctx context.Context) ([]Bucket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT day, revenue, bookings FROM analytics_daily ORDER BY day")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Date, &b.Revenue, &b.Bookings); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
