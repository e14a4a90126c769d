package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

const processedTable = "processed_documents"

// postgresStore implements Store on a shared Postgres table, for
// deployments where several machines take turns running the batch.
// Same contract as the other backends: Mark stages in memory, Save
// flushes.
type postgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	ids     map[string]struct{}
	pending []string
	lastRun time.Time
}

func openPostgres(dsn string) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s, err := initPostgres(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initPostgres ensures the schema and loads the processed set plus the
// timestamp of the newest mark, so LastRun survives process restarts.
func initPostgres(ctx context.Context, db *sql.DB) (*postgresStore, error) {
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		doc_id    text PRIMARY KEY,
		marked_at timestamptz NOT NULL DEFAULT NOW()
	)`, processedTable)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	s := &postgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		ids:     make(map[string]struct{}),
	}
	if err := s.loadIDs(ctx); err != nil {
		return nil, err
	}
	if err := s.loadLastRun(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *postgresStore) loadIDs(ctx context.Context) error {
	query, args, err := s.builder.
		Select("doc_id").
		From(processedTable).
		ToSql()
	if err != nil {
		return fmt.Errorf("build load query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load processed ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan id: %w", err)
		}
		s.ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

func (s *postgresStore) loadLastRun(ctx context.Context) error {
	query, args, err := s.builder.
		Select("MAX(marked_at)").
		From(processedTable).
		ToSql()
	if err != nil {
		return fmt.Errorf("build last-run query: %w", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return fmt.Errorf("load last run: %w", err)
	}
	if last.Valid {
		s.lastRun = last.Time.UTC()
	}
	return nil
}

func (s *postgresStore) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *postgresStore) Mark(id string) {
	if id == "" {
		return
	}
	s.lastRun = time.Now().UTC()
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.pending = append(s.pending, id)
}

func (s *postgresStore) Save() error {
	if len(s.pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	insert := s.builder.
		Insert(processedTable).
		Columns("doc_id", "marked_at")
	for _, id := range s.pending {
		insert = insert.Values(id, s.lastRun)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (doc_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *postgresStore) LastRun() time.Time { return s.lastRun }
func (s *postgresStore) Len() int           { return len(s.ids) }

func (s *postgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
