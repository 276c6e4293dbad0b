package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complaint-register/api/internal/complaint"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, rec complaint.Record) error {
	insert := fmt.Sprintf("INSERT INTO complaints (%s) VALUES (%s)", recordColumns, placeholders(len(recordColumnNames), 1, true))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert, recordArgs(rec)...); err != nil {
			return err
		}
		if n, ok := complaint.ParseSerialNumber(rec.Serial); ok {
			if _, err := tx.Exec(ctx, "UPDATE complaint_sequence SET value = GREATEST(value, $1) WHERE id = 1", n); err != nil {
				return fmt.Errorf("advance sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return complaint.ErrDuplicateSerial
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, rec complaint.Record) (bool, error) {
	query := fmt.Sprintf("UPDATE complaints SET %s, updated_at = now() WHERE serial = $%d", updateSetClause(true), len(recordColumnNames))
	tag, err := s.pool.Exec(ctx, query, updateArgs(rec)...)
	if err != nil {
		return false, fmt.Errorf("update complaint: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) Delete(ctx context.Context, serial string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM complaints WHERE serial = $1", serial)
	if err != nil {
		return false, fmt.Errorf("delete complaint: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) Get(ctx context.Context, serial string) (complaint.Record, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM complaints WHERE serial = $1", serial)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return complaint.Record{}, complaint.ErrNotFound
		}
		return complaint.Record{}, fmt.Errorf("select complaint: %w", err)
	}
	return rec, nil
}

func (s *Postgres) List(ctx context.Context, q complaint.ListQuery) ([]complaint.Record, error) {
	query := "SELECT " + recordColumns + " FROM complaints" + orderClause(q)
	var args []any
	if limit, offset, ok := limitOffset(q); ok {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return collectRecords(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM complaints").Scan(&total); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return total, nil
}

func (s *Postgres) NextSequence(ctx context.Context) (int, error) {
	var value int
	err := s.pool.QueryRow(ctx, "UPDATE complaint_sequence SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return value, nil
}

func (s *Postgres) MarkReplacementReceived(ctx context.Context, serial string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE complaints SET replacement_received = $1, updated_at = now() WHERE serial = $2",
		complaint.ReplacementReceived, serial,
	)
	if err != nil {
		return false, fmt.Errorf("mark replacement received: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) ListPendingReplacement(ctx context.Context) ([]complaint.Record, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+recordColumns+" FROM complaints WHERE replacement_received IS NOT NULL AND replacement_received <> $1 ORDER BY "+serialOrder,
		complaint.ReplacementReceived,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending replacements: %w", err)
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]complaint.Record, error) {
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (complaint.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan complaints: %w", err)
	}
	return records, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
