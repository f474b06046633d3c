package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TimestampLayout is RFC 3339 with fixed-width nanoseconds, so booked_at
// values order correctly as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Allocation is one successful booking made through this client.
type Allocation struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Scenario   string  `json:"scenario,omitempty"`
	Size       int     `json:"size"`
	TravelTime float64 `json:"travel_time"`
	Rooms      string  `json:"rooms"`
	APIURL     string  `json:"api_url"`
	BookedAt   string  `json:"booked_at"`
}

type AllocationFilter struct {
	Kind  string
	Since string
	Limit int
}

func OpenHistoryDB() (*sql.DB, error) {
	if _, err := ensureConfigDir(); err != nil {
		return nil, err
	}
	path, err := HistoryPath()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := ensureHistorySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ensureHistorySchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS allocations (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  size INTEGER,
  travel_time REAL,
  rooms TEXT,
  booked_at TEXT
);`

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create allocations table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_allocations_booked_at ON allocations(booked_at);"); err != nil {
		return fmt.Errorf("create allocations index: %w", err)
	}

	if err := ensureHistoryColumns(db, []string{"scenario", "api_url"}); err != nil {
		return err
	}

	return nil
}

func ensureHistoryColumns(db *sql.DB, columns []string) error {
	rows, err := db.Query("PRAGMA table_info(allocations);")
	if err != nil {
		return fmt.Errorf("inspect allocations table: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect allocations columns: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect allocations columns: %w", err)
	}

	for _, column := range columns {
		if _, ok := existing[column]; ok {
			continue
		}
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE allocations ADD COLUMN %s TEXT;", column))
		if err != nil {
			return fmt.Errorf("add allocations column %s: %w", column, err)
		}
	}
	return nil
}

func AddAllocation(db *sql.DB, allocation Allocation) error {
	query := `
INSERT INTO allocations (
  id, kind, scenario, size, travel_time, rooms, api_url, booked_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := db.Exec(
		query,
		allocation.ID,
		allocation.Kind,
		allocation.Scenario,
		allocation.Size,
		allocation.TravelTime,
		allocation.Rooms,
		allocation.APIURL,
		allocation.BookedAt,
	)
	return err
}

func RemoveAllocation(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec("DELETE FROM allocations WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func ClearAllocations(db *sql.DB) (int64, error) {
	res, err := db.Exec("DELETE FROM allocations")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAllocations returns matching allocations, most recent first.
func ListAllocations(db *sql.DB, filter AllocationFilter) ([]Allocation, error) {
	base := `
SELECT id, kind, scenario, size, travel_time, rooms, api_url, booked_at
FROM allocations`

	conds := []string{}
	args := []any{}

	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Since != "" {
		conds = append(conds, "booked_at >= ?")
		args = append(args, filter.Since)
	}

	query := base
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY booked_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := []Allocation{}
	for rows.Next() {
		var allocation Allocation
		var scenario sql.NullString
		var apiURL sql.NullString
		var travelTime sql.NullFloat64
		if err := rows.Scan(
			&allocation.ID,
			&allocation.Kind,
			&scenario,
			&allocation.Size,
			&travelTime,
			&allocation.Rooms,
			&apiURL,
			&allocation.BookedAt,
		); err != nil {
			return nil, err
		}
		if scenario.Valid {
			allocation.Scenario = scenario.String
		}
		if apiURL.Valid {
			allocation.APIURL = apiURL.String
		}
		if travelTime.Valid {
			allocation.TravelTime = travelTime.Float64
		}
		allocations = append(allocations, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return allocations, nil
}
