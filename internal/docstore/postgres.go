package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every collection in one JSONB table:
//
//	documents(collection TEXT, id TEXT, data JSONB, created_at, updated_at)
//
// Field updates lock the row, apply the transforms in Go and write the
// whole document back inside one transaction. Server timestamps come from
// the database clock.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, ref Ref) (*Snapshot, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		ref.Collection, ref.ID,
	)
	snap, err := scanSnapshot(ref, row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", ref, err)
	}
	return snap, nil
}

func (s *PostgresStore) Set(ctx context.Context, ref Ref, data any, merge bool) error {
	if err := ref.validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx, now time.Time) error {
		obj, err := normalizeObject(data, now)
		if err != nil {
			return err
		}

		if merge {
			snap, _, err := lockDocument(ctx, tx, ref, true, now)
			if err != nil {
				return err
			}
			merged := copyObject(snap.Data)
			mergeObjects(merged, obj)
			obj = merged
		}

		encoded, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO documents (collection, id, data, created_at, updated_at)
			VALUES ($1, $2, $3::jsonb, $4, $4)
			ON CONFLICT (collection, id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		`, ref.Collection, ref.ID, string(encoded), now)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", ref, err)
		}
		return nil
	})
}

func (s *PostgresStore) Update(ctx context.Context, ref Ref, updates []Update) error {
	return s.mutate(ctx, ref, false, func(*Snapshot) ([]Update, error) { return updates, nil })
}

func (s *PostgresStore) Upsert(ctx context.Context, ref Ref, updates []Update) error {
	return s.mutate(ctx, ref, true, func(*Snapshot) ([]Update, error) { return updates, nil })
}

func (s *PostgresStore) RunTransaction(ctx context.Context, ref Ref, fn TxFunc) error {
	return s.mutate(ctx, ref, true, fn)
}

func (s *PostgresStore) mutate(ctx context.Context, ref Ref, create bool, fn TxFunc) error {
	if err := ref.validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx, now time.Time) error {
		snap, _, err := lockDocument(ctx, tx, ref, create, now)
		if err != nil {
			return err
		}

		updates, err := fn(snap)
		if err != nil {
			return err
		}

		data := copyObject(snap.Data)
		if err := applyUpdates(data, updates, now); err != nil {
			return err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE documents SET data = $3::jsonb, updated_at = $4 WHERE collection = $1 AND id = $2`,
			ref.Collection, ref.ID, string(encoded), now,
		)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", ref, err)
		}
		return nil
	})
}

// lockDocument selects the row FOR UPDATE. With create set, a missing row is
// inserted first so concurrent creators serialize on the same row lock.
func lockDocument(ctx context.Context, tx pgx.Tx, ref Ref, create bool, now time.Time) (*Snapshot, bool, error) {
	created := false
	if create {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO documents (collection, id, data, created_at, updated_at)
			VALUES ($1, $2, '{}'::jsonb, $3, $3)
			ON CONFLICT (collection, id) DO NOTHING
			RETURNING id
		`, ref.Collection, ref.ID, now).Scan(&id)
		switch {
		case err == nil:
			created = true
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return nil, false, fmt.Errorf("failed to create %s: %w", ref, err)
		}
	}

	row := tx.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		ref.Collection, ref.ID,
	)
	snap, err := scanSnapshot(ref, row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock %s: %w", ref, err)
	}
	if created {
		snap.exists = false
	}
	return snap, created, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ref Ref) error {
	if err := ref.validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, ref.Collection, ref.ID)
	return err
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	sql, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var (
			id               string
			raw              []byte
			created, updated time.Time
		)
		if err := rows.Scan(&id, &raw, &created, &updated); err != nil {
			return nil, err
		}
		snap, err := newSnapshot(Doc(q.Collection, id), raw, created, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func buildQuery(q Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		parts, _ := splitPath(f.Path)
		field := "data #> " + arg(parts) + "::text[]"

		value, err := filterValue(f.Value)
		if err != nil {
			return "", nil, err
		}

		if f.Op == OpIn {
			list, ok := value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("docstore: %q filter on %s needs a list", OpIn, f.Path)
			}
			encoded := make([]string, len(list))
			for i, item := range list {
				b, _ := json.Marshal(item)
				encoded[i] = string(b)
			}
			fmt.Fprintf(&sb, " AND %s = ANY(%s::jsonb[])", field, arg(encoded))
			continue
		}

		b, _ := json.Marshal(value)
		v := arg(string(b)) + "::jsonb"
		switch f.Op {
		case OpEq:
			fmt.Fprintf(&sb, " AND %s = %s", field, v)
		case OpNe:
			fmt.Fprintf(&sb, " AND %s IS NOT NULL AND %s <> %s", field, field, v)
		default:
			fmt.Fprintf(&sb, " AND jsonb_typeof(%s) = jsonb_typeof(%s) AND %s %s %s", field, v, field, f.Op, v)
		}
	}

	if q.OrderPath != "" {
		parts, _ := splitPath(q.OrderPath)
		order := "data #> " + arg(parts) + "::text[]"
		dir := "ASC"
		if q.Direction == Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " AND %s IS NOT NULL ORDER BY %s %s, id", order, order, dir)
	} else {
		sb.WriteString(" ORDER BY id")
	}

	if q.Max > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Max)
	}
	return sb.String(), args, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx, now time.Time) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var now time.Time
	if err := tx.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return fmt.Errorf("failed to read server time: %w", err)
	}

	if err := fn(tx, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanSnapshot(ref Ref, row pgx.Row) (*Snapshot, error) {
	var (
		raw              []byte
		created, updated time.Time
	)
	if err := row.Scan(&raw, &created, &updated); err != nil {
		return nil, err
	}
	return newSnapshot(ref, raw, created, updated)
}

func newSnapshot(ref Ref, raw []byte, created, updated time.Time) (*Snapshot, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", ref, err)
		}
	}
	return &Snapshot{
		Ref:        ref,
		Data:       data,
		CreateTime: created,
		UpdateTime: updated,
		exists:     true,
	}, nil
}
