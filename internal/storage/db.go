package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// DB is the PostgreSQL implementation of Store.
type DB struct {
	connection *sql.DB
}

var _ Store = (*DB)(nil)

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() error {
	return db.connection.Close()
}

// EnsureSchema creates the documents table when missing. file_id carries
// the uniqueness constraint used for idempotent re-processing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.connection.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS documents (
            id              TEXT PRIMARY KEY,
            file_id         TEXT NOT NULL UNIQUE,
            filename        TEXT NOT NULL,
            uploaded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            status          TEXT NOT NULL DEFAULT 'pending',
            analyzed        BOOLEAN NOT NULL DEFAULT FALSE,
            error           TEXT NOT NULL DEFAULT '',
            raw_text_key    TEXT NOT NULL DEFAULT '',
            fixed_text_key  TEXT NOT NULL DEFAULT '',
            parsed_data     JSONB,
            analysis        JSONB,
            tags            TEXT[] NOT NULL DEFAULT '{}',
            first_name      TEXT NOT NULL DEFAULT '',
            last_name       TEXT NOT NULL DEFAULT '',
            age             INTEGER NOT NULL DEFAULT 0,
            department      TEXT NOT NULL DEFAULT '',
            email           TEXT NOT NULL DEFAULT '',
            phone           TEXT NOT NULL DEFAULT '',
            birthdate       TEXT NOT NULL DEFAULT '',
            gender          TEXT NOT NULL DEFAULT '',
            expected_salary INTEGER NOT NULL DEFAULT 0
        )`)
	return err
}

const documentColumns = `id, file_id, filename, uploaded_at, status, analyzed, error,
        raw_text_key, fixed_text_key, parsed_data, analysis, tags,
        first_name, last_name, age, department, email, phone, birthdate, gender, expected_salary`

func (db *DB) Create(ctx context.Context, doc *Document) error {
	analysisJSON, err := marshalAnalysis(doc.Analysis)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (` + documentColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err = db.connection.ExecContext(ctx, query,
		doc.ID, doc.FileID, doc.Filename, doc.UploadedAt, doc.Status, doc.Analyzed, doc.Error,
		doc.RawTextKey, doc.FixedTextKey, nullableJSON(doc.ParsedData), analysisJSON, pq.Array(doc.Tags),
		doc.FirstName, doc.LastName, doc.Age, doc.Department, doc.Email, doc.Phone,
		doc.Birthdate, doc.Gender, doc.ExpectedSalary,
	)
	return err
}

func (db *DB) Get(ctx context.Context, id string) (*Document, error) {
	row := db.connection.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (db *DB) GetByFileID(ctx context.Context, fileID string) (*Document, error) {
	row := db.connection.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE file_id = $1`, fileID)
	return scanDocument(row)
}

func (db *DB) List(ctx context.Context) ([]*Document, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Update overwrites the derived fields of a record keyed by id. FileID,
// filename and upload time are immutable after creation.
func (db *DB) Update(ctx context.Context, doc *Document) error {
	analysisJSON, err := marshalAnalysis(doc.Analysis)
	if err != nil {
		return err
	}
	query := `UPDATE documents SET
                status = $2, analyzed = $3, error = $4,
                raw_text_key = $5, fixed_text_key = $6,
                parsed_data = $7, analysis = $8, tags = $9,
                first_name = $10, last_name = $11, age = $12, department = $13,
                email = $14, phone = $15, birthdate = $16, gender = $17, expected_salary = $18
              WHERE id = $1`
	res, err := db.connection.ExecContext(ctx, query,
		doc.ID, doc.Status, doc.Analyzed, doc.Error,
		doc.RawTextKey, doc.FixedTextKey,
		nullableJSON(doc.ParsedData), analysisJSON, pq.Array(doc.Tags),
		doc.FirstName, doc.LastName, doc.Age, doc.Department,
		doc.Email, doc.Phone, doc.Birthdate, doc.Gender, doc.ExpectedSalary,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (db *DB) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := db.connection.ExecContext(ctx,
		`UPDATE documents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetError moves a record to the terminal error state. The analyzed flag is
// cleared to keep the status invariants intact.
func (db *DB) SetError(ctx context.Context, id, msg string) error {
	res, err := db.connection.ExecContext(ctx,
		`UPDATE documents SET status = $2, error = $3, analyzed = FALSE WHERE id = $1`,
		id, StatusError, msg)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Query returns records matching the structured filter predicates using
// ILIKE partial matches, tag containment and inclusive numeric ranges.
func (db *DB) Query(ctx context.Context, f Filter) ([]*Document, error) {
	base := `SELECT ` + documentColumns + ` FROM documents`
	var where []string
	var args []interface{}
	i := 1

	if len(f.Tags) > 0 {
		where = append(where, fmt.Sprintf("tags @> $%d", i))
		args = append(args, pq.Array(f.Tags))
		i++
	}
	if f.Name != "" {
		where = append(where, fmt.Sprintf("(first_name || ' ' || last_name) ILIKE $%d", i))
		args = append(args, "%"+f.Name+"%")
		i++
	}
	if f.Department != "" {
		where = append(where, fmt.Sprintf("department ILIKE $%d", i))
		args = append(args, "%"+f.Department+"%")
		i++
	}
	if f.AgeMin != nil {
		where = append(where, fmt.Sprintf("age >= $%d", i))
		args = append(args, *f.AgeMin)
		i++
	}
	if f.AgeMax != nil {
		where = append(where, fmt.Sprintf("age <= $%d", i))
		args = append(args, *f.AgeMax)
		i++
	}
	if f.SalaryMin != nil {
		where = append(where, fmt.Sprintf("expected_salary >= $%d", i))
		args = append(args, *f.SalaryMin)
		i++
	}
	if f.SalaryMax != nil {
		where = append(where, fmt.Sprintf("expected_salary <= $%d", i))
		args = append(args, *f.SalaryMax)
		i++
	}

	if len(where) > 0 {
		base += " WHERE " + strings.Join(where, " AND ")
	}
	base += " ORDER BY uploaded_at DESC"

	rows, err := db.connection.QueryContext(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	doc := &Document{}
	var parsed, analysis []byte
	err := row.Scan(
		&doc.ID, &doc.FileID, &doc.Filename, &doc.UploadedAt, &doc.Status, &doc.Analyzed, &doc.Error,
		&doc.RawTextKey, &doc.FixedTextKey, &parsed, &analysis, pq.Array(&doc.Tags),
		&doc.FirstName, &doc.LastName, &doc.Age, &doc.Department, &doc.Email, &doc.Phone,
		&doc.Birthdate, &doc.Gender, &doc.ExpectedSalary,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(parsed) > 0 {
		doc.ParsedData = json.RawMessage(parsed)
	}
	if len(analysis) > 0 {
		doc.Analysis = &AnalysisSummary{}
		if err := json.Unmarshal(analysis, doc.Analysis); err != nil {
			return nil, fmt.Errorf("decode analysis for %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalAnalysis(a *AnalysisSummary) (interface{}, error) {
	if a == nil {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return data, nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
