package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"facecounter/internal/model"
)

// AttendanceRepository implements repository.AttendanceRepository for SQLite.
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert appends one record to a date.
func (r *AttendanceRepository) Insert(day model.Date, rec model.AttendanceRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO attendance (date, label, timestamp, session)
		VALUES (?, ?, ?, ?)
	`, day.String(), rec.Label, rec.Timestamp.Format(time.RFC3339Nano), rec.Session)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attendance: %w", err)
	}

	return result.LastInsertId()
}

// GetByDate returns the records of a date in insertion order.
func (r *AttendanceRepository) GetByDate(day model.Date) ([]model.AttendanceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT label, timestamp, session
		FROM attendance WHERE date = ? ORDER BY id
	`, day.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []model.AttendanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetDates returns the dates with records, oldest first.
func (r *AttendanceRepository) GetDates() ([]model.Date, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT date FROM attendance ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dates: %w", err)
	}
	defer rows.Close()

	var dates []model.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		day, err := model.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, rows.Err()
}

// GetHistory returns the whole ledger.
func (r *AttendanceRepository) GetHistory() (map[model.Date][]model.AttendanceRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT date, label, timestamp, session
		FROM attendance ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	history := make(map[model.Date][]model.AttendanceRecord)
	for rows.Next() {
		var date string
		rec, err := scanRecord(rows, &date)
		if err != nil {
			return nil, err
		}
		day, err := model.ParseDate(date)
		if err != nil {
			return nil, err
		}
		history[day] = append(history[day], rec)
	}

	return history, rows.Err()
}

// ReplaceAll swaps the stored ledger for history in one transaction.
func (r *AttendanceRepository) ReplaceAll(history map[model.Date][]model.AttendanceRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceAttendance(tx, history, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// replaceAttendance calls onRecord, when set, after each inserted record.
func replaceAttendance(ex execer, history map[model.Date][]model.AttendanceRecord, onRecord func()) error {
	if _, err := ex.Exec(`DELETE FROM attendance`); err != nil {
		return fmt.Errorf("failed to clear attendance: %w", err)
	}

	stmt, err := ex.Prepare(`
		INSERT INTO attendance (date, label, timestamp, session)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Oldest day first so row ids follow the calendar.
	days := make([]model.Date, 0, len(history))
	for day := range history {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, day := range days {
		for _, rec := range history[day] {
			if _, err := stmt.Exec(day.String(), rec.Label, rec.Timestamp.Format(time.RFC3339Nano), rec.Session); err != nil {
				return fmt.Errorf("failed to insert attendance: %w", err)
			}
			if onRecord != nil {
				onRecord()
			}
		}
	}
	return nil
}

// scanRecord reads label, timestamp and session, preceded by any extra
// leading columns in lead.
func scanRecord(rows *sql.Rows, lead ...any) (model.AttendanceRecord, error) {
	var (
		rec model.AttendanceRecord
		ts  string
	)
	dest := append(lead, &rec.Label, &ts, &rec.Session)
	if err := rows.Scan(dest...); err != nil {
		return rec, fmt.Errorf("failed to scan attendance: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return rec, fmt.Errorf("invalid attendance timestamp %q: %w", ts, err)
	}
	rec.Timestamp = t
	return rec, nil
}
