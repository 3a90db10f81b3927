package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/syncteam/internal/domain/record"
	"github.com/rpggio/syncteam/internal/repository"
)

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DocumentRepository implements record.Repository over the JSON document
// tables. Table names are checked against the served set before they reach
// SQL, and column names must be plain identifiers.
type DocumentRepository struct {
	db  *DB
	now func() time.Time
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: time.Now}
}

const documentColumns = "id, data, created_at, updated_at"

func checkTable(table string) error {
	if !record.Known(table) {
		return fmt.Errorf("%w: %s", record.ErrUnknownTable, table)
	}
	return nil
}

// column maps a wire column to a SQL expression.
func column(name string) (string, error) {
	switch name {
	case "id", "created_at", "updated_at":
		return name, nil
	}
	if !columnPattern.MatchString(name) {
		return "", fmt.Errorf("%w: column %q", repository.ErrInvalidInput, name)
	}
	return "json_extract(data, '$." + name + "')", nil
}

// List returns documents matching the options
func (r *DocumentRepository) List(ctx context.Context, table string, opts record.ListOptions) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query := "SELECT " + documentColumns + " FROM " + table
	args := []interface{}{}
	conditions := []string{}

	cols := make([]string, 0, len(opts.Eq))
	for col := range opts.Eq {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	for _, col := range cols {
		expr, err := column(col)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "CAST("+expr+" AS TEXT) = ?")
		args = append(args, opts.Eq[col])
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	order := "id"
	if opts.Order != "" {
		expr, err := column(opts.Order)
		if err != nil {
			return nil, err
		}
		order = expr
	}
	direction := " ASC"
	if opts.Desc {
		direction = " DESC"
	}
	query += " ORDER BY " + order + direction + ", id" + direction

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	docs := []record.Record{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return docs, nil
}

// Get retrieves a document by ID
func (r *DocumentRepository) Get(ctx context.Context, table, id string) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM "+table+" WHERE id = ?", id)
	doc, err := scanDocument(row)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", table, id, err)
	}
	return doc, nil
}

// Create inserts a document and returns it with its assigned id
func (r *DocumentRepository) Create(ctx context.Context, table string, rec record.Record) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	data, err := encodeDocument(rec)
	if err != nil {
		return nil, err
	}
	now := formatTime(r.now())

	row := r.db.QueryRowContext(ctx,
		"INSERT INTO "+table+" (data, created_at, updated_at) VALUES (?, ?, ?) RETURNING "+documentColumns,
		data, now, now,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", table, err)
	}
	return doc, nil
}

// Put writes a document under a caller-chosen id, replacing any existing
// contents. Profiles use it so that they share the owning user's id.
func (r *DocumentRepository) Put(ctx context.Context, table, id string, rec record.Record) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	data, err := encodeDocument(rec)
	if err != nil {
		return nil, err
	}
	now := formatTime(r.now())

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO `+table+` (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		RETURNING `+documentColumns,
		id, data, now, now,
	)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("failed to put %s %s: %w", table, id, err)
	}
	return doc, nil
}

// Update merges patch into the stored document. Keys set to null are removed.
func (r *DocumentRepository) Update(ctx context.Context, table, id string, patch record.Record) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	data, err := encodeDocument(patch)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx,
		"UPDATE "+table+" SET data = json_patch(data, ?), updated_at = ? WHERE id = ? RETURNING "+documentColumns,
		data, formatTime(r.now()), id,
	)
	doc, err := scanDocument(row)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", table, id, err)
	}
	return doc, nil
}

// Delete removes a document and returns its last contents
func (r *DocumentRepository) Delete(ctx context.Context, table, id string) (record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, "DELETE FROM "+table+" WHERE id = ? RETURNING "+documentColumns, id)
	doc, err := scanDocument(row)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s %s: %w", table, id, err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (record.Record, error) {
	var (
		id                   int64
		data                 string
		createdAt, updatedAt sql.NullString
	)
	if err := s.Scan(&id, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc := record.Record{}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document %d: %w", id, err)
	}
	doc["id"] = strconv.FormatInt(id, 10)
	if createdAt.Valid {
		doc["created_at"] = createdAt.String
	}
	if updatedAt.Valid {
		doc["updated_at"] = updatedAt.String
	}
	return doc, nil
}

func encodeDocument(rec record.Record) (string, error) {
	body := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case "id", "created_at", "updated_at":
			continue
		}
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	return string(data), nil
}
