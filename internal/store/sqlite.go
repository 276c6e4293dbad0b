package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/complaint-register/api/internal/complaint"
)

const sqliteNow = "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')"

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Create(ctx context.Context, rec complaint.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	insert := fmt.Sprintf("INSERT INTO complaints (%s) VALUES (%s)", recordColumns, placeholders(len(recordColumnNames), 1, false))
	if _, err := tx.ExecContext(ctx, insert, recordArgs(rec)...); err != nil {
		if isConstraintViolation(err) {
			return complaint.ErrDuplicateSerial
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	if n, ok := complaint.ParseSerialNumber(rec.Serial); ok {
		if _, err := tx.ExecContext(ctx, "UPDATE complaint_sequence SET value = MAX(value, ?) WHERE id = 1", n); err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, rec complaint.Record) (bool, error) {
	query := fmt.Sprintf("UPDATE complaints SET %s, updated_at = %s WHERE serial = ?", updateSetClause(false), sqliteNow)
	res, err := s.db.ExecContext(ctx, query, updateArgs(rec)...)
	if err != nil {
		return false, fmt.Errorf("update complaint: %w", err)
	}
	return affected(res)
}

func (s *SQLite) Delete(ctx context.Context, serial string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM complaints WHERE serial = ?", serial)
	if err != nil {
		return false, fmt.Errorf("delete complaint: %w", err)
	}
	return affected(res)
}

func (s *SQLite) Get(ctx context.Context, serial string) (complaint.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM complaints WHERE serial = ?", serial)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return complaint.Record{}, complaint.ErrNotFound
		}
		return complaint.Record{}, fmt.Errorf("select complaint: %w", err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context, q complaint.ListQuery) ([]complaint.Record, error) {
	query := "SELECT " + recordColumns + " FROM complaints" + orderClause(q)
	var args []any
	if limit, offset, ok := limitOffset(q); ok {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return s.query(ctx, query, args...)
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM complaints").Scan(&total); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return total, nil
}

func (s *SQLite) NextSequence(ctx context.Context) (int, error) {
	var value int
	err := s.db.QueryRowContext(ctx, "UPDATE complaint_sequence SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return value, nil
}

func (s *SQLite) MarkReplacementReceived(ctx context.Context, serial string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE complaints SET replacement_received = ?, updated_at = "+sqliteNow+" WHERE serial = ?",
		complaint.ReplacementReceived, serial,
	)
	if err != nil {
		return false, fmt.Errorf("mark replacement received: %w", err)
	}
	return affected(res)
}

func (s *SQLite) ListPendingReplacement(ctx context.Context) ([]complaint.Record, error) {
	return s.query(ctx,
		"SELECT "+recordColumns+" FROM complaints WHERE replacement_received IS NOT NULL AND replacement_received <> ? ORDER BY "+serialOrder,
		complaint.ReplacementReceived,
	)
}

func (s *SQLite) query(ctx context.Context, query string, args ...any) ([]complaint.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	records := []complaint.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return records, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
