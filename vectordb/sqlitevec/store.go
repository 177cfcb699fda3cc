// Package sqlitevec implements vectordb.Index on SQLite using sqlite-vec
// embedding encoding; one shadow table holds every collection.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/casebot/db/sqliteutil"
	"github.com/viant/casebot/document"
	"github.com/viant/casebot/schema"
	"github.com/viant/casebot/vectordb"
	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vector"
)

const (
	defaultCollection = "casebot"
	defaultTable      = "emb_docs"
	busyTimeoutMS     = 5000
)

// Store is a sqlite backed vectordb.Index.
type Store struct {
	db            *sql.DB
	dsn           string
	collection    string
	shadow        string
	ensureSchema  bool
	embedModel    string
	policy        vectordb.Policy
	openedLocally bool
}

// Option configures the sqlite store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/index.sqlite).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithCollection sets the collection name (default: casebot).
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// WithTable sets the base table name (default: emb_docs).
func WithTable(name string) Option {
	return func(s *Store) { s.shadow = "_vec_" + name }
}

// WithEnsureSchema controls whether schema and indexes are created automatically.
func WithEnsureSchema(enabled bool) Option {
	return func(s *Store) { s.ensureSchema = enabled }
}

// WithEmbeddingModel pins the embedding model identity of the collection.
func WithEmbeddingModel(model string) Option {
	return func(s *Store) { s.embedModel = model }
}

// WithPolicy sets the generation policy (default: replace).
func WithPolicy(policy vectordb.Policy) Option {
	return func(s *Store) { s.policy = policy }
}

// NewStore opens/initializes a sqlite Store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		collection:   defaultCollection,
		shadow:       "_vec_" + defaultTable,
		ensureSchema: true,
		policy:       vectordb.PolicyReplace,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.embedModel == "" {
		return nil, fmt.Errorf("sqlitevec: embedding model required")
	}
	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlitevec: dsn required")
		}
		db, err := engine.Open(sqliteutil.EnsurePragmas(s.dsn, true, busyTimeoutMS))
		if err != nil {
			return nil, err
		}
		s.db = db
		if sqliteutil.IsMemory(s.dsn) {
			s.db.SetMaxOpenConns(1)
		} else {
			s.db.SetMaxOpenConns(4)
			s.db.SetMaxIdleConns(4)
		}
		s.openedLocally = true
	}
	if s.ensureSchema {
		if err := s.ensureSchemaDDL(context.Background()); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the underlying DB if Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// Model returns the pinned embedding model.
func (s *Store) Model() string { return s.embedModel }

type collectionInfo struct {
	model      string
	metric     string
	dimension  int
	generation string
	policy     string
	updatedAt  time.Time
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) loadCollection(ctx context.Context, q queryer) (*collectionInfo, error) {
	info := &collectionInfo{}
	var updatedAt string
	err := q.QueryRowContext(ctx, `SELECT embedding_model, metric, dimension, generation, policy, updated_at
FROM vec_collection WHERE collection = ?`, s.collection).
		Scan(&info.model, &info.metric, &info.dimension, &info.generation, &info.policy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info.updatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return info, nil
}

// Upsert writes chunks under a new generation in a single transaction.
// With the replace policy all earlier generations are archived in the same
// transaction; with append they stay searchable.
func (s *Store) Upsert(ctx context.Context, chunks document.Chunks, vectors [][]float32) (*vectordb.UpsertResult, error) {
	dim, err := vectordb.ValidateUpsert(chunks, vectors)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	info, err := s.loadCollection(ctx, tx)
	if err != nil {
		return nil, err
	}
	if info != nil && s.policy == vectordb.PolicyAppend {
		if info.model != s.embedModel {
			return nil, fmt.Errorf("%w: collection %s built with %s, writing with %s", vectordb.ErrModelMismatch, s.collection, info.model, s.embedModel)
		}
		if info.dimension != dim {
			return nil, fmt.Errorf("%w: collection %s has %d dimensions, writing %d", vectordb.ErrDimension, s.collection, info.dimension, dim)
		}
	}

	result := &vectordb.UpsertResult{Generation: uuid.NewString()}
	if s.policy == vectordb.PolicyReplace {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET archived = 1 WHERE collection = ? AND archived = 0`, s.shadow), s.collection)
		if err != nil {
			return nil, err
		}
		superseded, _ := res.RowsAffected()
		result.Superseded = int(superseded)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(collection, id, generation, content, meta, embedding, embedding_model, archived)
VALUES(?,?,?,?,?,?,?,0)`, s.shadow))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for i, chunk := range chunks {
		metaJSON, err := json.Marshal(vectordb.ChunkMeta(chunk))
		if err != nil {
			return nil, err
		}
		blob, err := vector.EncodeEmbedding(vectors[i])
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, s.collection, chunk.ID(), result.Generation, chunk.Text, string(metaJSON), blob, s.embedModel); err != nil {
			return nil, err
		}
		result.Written++
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_collection(collection, embedding_model, metric, dimension, generation, policy, updated_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(collection) DO UPDATE SET
	embedding_model=excluded.embedding_model,
	metric=excluded.metric,
	dimension=excluded.dimension,
	generation=excluded.generation,
	policy=excluded.policy,
	updated_at=excluded.updated_at`,
		s.collection, s.embedModel, vectordb.MetricCosine, dim, result.Generation, string(s.policy), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// Query scores every active record of the collection by cosine similarity.
func (s *Store) Query(ctx context.Context, query []float32, k int) ([]schema.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", vectordb.ErrInvalidArgument, k)
	}
	info, err := s.loadCollection(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	if info.model != s.embedModel {
		return nil, fmt.Errorf("%w: collection %s built with %s, querying with %s", vectordb.ErrModelMismatch, s.collection, info.model, s.embedModel)
	}
	if info.dimension != len(query) {
		return nil, fmt.Errorf("%w: collection %s has %d dimensions, query has %d", vectordb.ErrDimension, s.collection, info.dimension, len(query))
	}
	records, err := s.records(ctx, -1, true)
	if err != nil {
		return nil, err
	}
	return vectordb.Rank(query, records, k), nil
}

// Sample returns up to n active records in insertion order.
func (s *Store) Sample(ctx context.Context, n int) ([]*vectordb.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.records(ctx, n, false)
}

func (s *Store) records(ctx context.Context, limit int, withVectors bool) ([]*vectordb.Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT seq, id, generation, content, meta, embedding
FROM %s
WHERE collection = ? AND archived = 0
ORDER BY seq
LIMIT ?`, s.shadow), s.collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*vectordb.Record
	for rows.Next() {
		record := &vectordb.Record{}
		var metaJSON sql.NullString
		var blob []byte
		if err := rows.Scan(&record.Seq, &record.ID, &record.Generation, &record.Content, &metaJSON, &blob); err != nil {
			return nil, err
		}
		if record.Meta, err = decodeMeta(metaJSON.String); err != nil {
			return nil, err
		}
		if withVectors {
			if record.Vector, err = vector.DecodeEmbedding(blob); err != nil {
				return nil, fmt.Errorf("sqlitevec: decode embedding %s: %w", record.ID, err)
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Purge removes every record and the model pin of the collection.
func (s *Store) Purge(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, s.shadow), s.collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_collection WHERE collection = ?`, s.collection); err != nil {
		return err
	}
	return tx.Commit()
}

// Prune hard-deletes archived records and returns the number removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND archived = 1`, s.shadow), s.collection)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats summarizes the collection.
func (s *Store) Stats(ctx context.Context) (*vectordb.Stats, error) {
	stats := &vectordb.Stats{Collection: s.collection}
	info, err := s.loadCollection(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if info != nil {
		stats.Model = info.model
		stats.Metric = info.metric
		stats.Dimension = info.dimension
		stats.Generation = info.generation
		stats.Policy = vectordb.Policy(info.policy)
		stats.UpdatedAt = info.updatedAt
	}
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT
	COALESCE(SUM(CASE WHEN archived = 0 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN archived = 1 THEN 1 ELSE 0 END), 0),
	COUNT(DISTINCT CASE WHEN archived = 0 THEN generation END)
FROM %s WHERE collection = ?`, s.shadow), s.collection).Scan(&stats.Active, &stats.Archived, &stats.Generations)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) ensureSchemaDDL(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vec_collection (
			collection       TEXT PRIMARY KEY,
			embedding_model  TEXT NOT NULL,
			metric           TEXT NOT NULL,
			dimension        INTEGER NOT NULL,
			generation       TEXT NOT NULL,
			policy           TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq              INTEGER PRIMARY KEY AUTOINCREMENT,
			collection       TEXT NOT NULL,
			id               TEXT NOT NULL,
			generation       TEXT NOT NULL,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			archived         INTEGER NOT NULL DEFAULT 0
		);`, s.shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx%s_active ON %s(collection, archived, seq);`, s.shadow, s.shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx%s_generation ON %s(collection, generation);`, s.shadow, s.shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func decodeMeta(metaJSON string) (map[string]interface{}, error) {
	if metaJSON == "" {
		return map[string]interface{}{}, nil
	}
	metaMap := map[string]interface{}{}
	if err := json.Unmarshal([]byte(metaJSON), &metaMap); err != nil {
		return nil, err
	}
	return metaMap, nil
}
