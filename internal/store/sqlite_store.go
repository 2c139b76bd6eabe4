package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection_id TEXT NOT NULL,
	document_id   TEXT NOT NULL,
	data          TEXT NOT NULL,
	permissions   TEXT NOT NULL DEFAULT '[]',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (collection_id, document_id)
);`

type documentRow struct {
	CollectionID string `db:"collection_id"`
	DocumentID   string `db:"document_id"`
	Data         string `db:"data"`
	Permissions  string `db:"permissions"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

// SQLiteStore keeps every collection in one table. Field data is stored as a JSON object,
// metadata lives in its own columns and is added back on read.
type SQLiteStore struct {
	db     *sqlx.DB
	logger providers.Logger
	now    func() time.Time
}

func NewSQLiteStore(path string, logger providers.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// a single connection keeps writers serialized without busy retries
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	logger.Debugf(providers.TypeApp, "sqlite store schema ready at %s", path)
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context, collectionID string, opts ListOptions) ([]models.Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM documents WHERE collection_id = ? ORDER BY rowid LIMIT ? OFFSET ?`,
		collectionID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collectionID, err)
	}

	docs := make([]models.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collectionID, documentID string) (models.Document, error) {
	row, err := getRow(ctx, s.db, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	return row.document()
}

func (s *SQLiteStore) Create(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}

	data, err := json.Marshal(fields.Clean())
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", documentID, err)
	}

	ts := models.FormatTimestamp(s.now())
	row := documentRow{
		CollectionID: collectionID,
		DocumentID:   documentID,
		Data:         string(data),
		Permissions:  "[]",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO documents (collection_id, document_id, data, permissions, created_at, updated_at)
		 VALUES (:collection_id, :document_id, :data, :permissions, :created_at, :updated_at)
		 ON CONFLICT (collection_id, document_id) DO NOTHING`, row)
	if err != nil {
		return nil, fmt.Errorf("create %s/%s: %w", collectionID, documentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrConflict, collectionID, documentID)
	}

	return row.document()
}

func (s *SQLiteStore) Update(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row, err := getRow(ctx, tx, collectionID, documentID)
	if err != nil {
		return nil, err
	}

	current, err := decodeFields(row.Data)
	if err != nil {
		return nil, err
	}
	for k, v := range fields.Clean() {
		current[k] = v
	}

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", documentID, err)
	}
	row.Data = string(data)
	row.UpdatedAt = models.FormatTimestamp(s.now())

	if _, err := tx.NamedExecContext(ctx,
		`UPDATE documents SET data = :data, updated_at = :updated_at
		 WHERE collection_id = :collection_id AND document_id = :document_id`, row); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collectionID, documentID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return row.document()
}

func (s *SQLiteStore) Delete(ctx context.Context, collectionID, documentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection_id = ? AND document_id = ?`, collectionID, documentID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collectionID, documentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collectionID, documentID)
	}
	return nil
}

func getRow(ctx context.Context, q sqlx.QueryerContext, collectionID, documentID string) (*documentRow, error) {
	var row documentRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT * FROM documents WHERE collection_id = ? AND document_id = ?`, collectionID, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collectionID, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collectionID, documentID, err)
	}
	return &row, nil
}

func (r *documentRow) document() (models.Document, error) {
	doc, err := decodeFields(r.Data)
	if err != nil {
		return nil, err
	}

	var permissions []any
	if err := json.Unmarshal([]byte(r.Permissions), &permissions); err != nil || permissions == nil {
		permissions = []any{}
	}

	doc[models.KeyID] = r.DocumentID
	doc[models.KeyCollectionID] = r.CollectionID
	doc[models.KeyCreatedAt] = r.CreatedAt
	doc[models.KeyUpdatedAt] = r.UpdatedAt
	doc[models.KeyPermissions] = permissions
	return doc, nil
}

func decodeFields(data string) (models.Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	doc := models.Document{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	if doc == nil {
		doc = models.Document{}
	}
	return doc, nil
}
