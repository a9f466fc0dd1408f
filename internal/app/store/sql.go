// internal/app/store/sql.go
package store

import (
	"context"
	"database/sql"

	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
	mysqldb "github.com/dalemusser/formdrop/pantry/db/mysql"
	sqlitedb "github.com/dalemusser/formdrop/pantry/db/sqlite"
	"github.com/jmoiron/sqlx"
)

// dialect holds the per-engine DDL. Both engines use ? placeholders and
// report inserted ids through LastInsertId.
type dialect struct {
	name        string
	driverName  string
	createTable string
}

var (
	sqliteDialect = dialect{
		name:       DriverSQLite,
		driverName: "sqlite3",
		createTable: `CREATE TABLE IF NOT EXISTS submissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	submitted_at TEXT NOT NULL
)`,
	}
	mysqlDialect = dialect{
		name:       DriverMySQL,
		driverName: "mysql",
		createTable: `CREATE TABLE IF NOT EXISTS submissions (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(512) NOT NULL,
	email VARCHAR(512) NOT NULL,
	phone VARCHAR(128) NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	submitted_at VARCHAR(32) NOT NULL
) CHARACTER SET utf8mb4`,
	}
)

const (
	sqlInsert = `INSERT INTO submissions (name, email, phone, message, submitted_at) VALUES (?, ?, ?, ?, ?)`
	sqlList   = `SELECT id, name, email, phone, message, submitted_at FROM submissions ORDER BY id`
	sqlCount  = `SELECT COUNT(*) FROM submissions`
)

// sqlRow is one submissions row as sqlx scans it.
type sqlRow struct {
	ID          int    `db:"id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	Phone       string `db:"phone"`
	Message     string `db:"message"`
	SubmittedAt string `db:"submitted_at"`
}

// SQLStore stores submissions in a database/sql table. The id column's
// autoincrement assigns ids.
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
}

var (
	_ Store         = (*SQLStore)(nil)
	_ SchemaEnsurer = (*SQLStore)(nil)
)

// OpenSQLite opens (creating if needed) the sqlite database at path.
// An empty path means "formdrop.db".
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = "formdrop.db"
	}
	db, err := sqlitedb.Connect(ctx, path)
	if err != nil {
		return nil, connectError("sqlite.connect", path, err)
	}
	return NewSQLStore(db, DriverSQLite), nil
}

// OpenMySQL connects with a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/formdrop".
func OpenMySQL(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := mysqldb.Connect(ctx, dsn)
	if err != nil {
		return nil, connectError("mysql.connect", "", err)
	}
	return NewSQLStore(db, DriverMySQL), nil
}

// NewSQLStore wraps an open database. driver is DriverSQLite or DriverMySQL.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	d := sqliteDialect
	if driver == DriverMySQL {
		d = mysqlDialect
	}
	return &SQLStore{db: sqlx.NewDb(db, d.driverName), dialect: d}
}

// EnsureSchema creates the submissions table.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		return &intake.StoreError{Op: s.dialect.name + ".schema", Kind: intake.KindWrite, Err: err}
	}
	return nil
}

// Append implements Store.
func (s *SQLStore) Append(ctx context.Context, sub models.Submission) (models.Submission, error) {
	res, err := s.db.ExecContext(ctx, sqlInsert, sub.Name, sub.Email, sub.Phone, sub.Message, sub.Timestamp)
	if err != nil {
		return models.Submission{}, &intake.StoreError{Op: s.dialect.name + ".insert", Kind: intake.KindWrite, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Submission{}, &intake.StoreError{Op: s.dialect.name + ".insert", Kind: intake.KindWrite, Err: err}
	}
	sub.ID = int(id)
	return sub, nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context) ([]models.Submission, error) {
	var rows []sqlRow
	if err := s.db.SelectContext(ctx, &rows, sqlList); err != nil {
		return nil, &intake.StoreError{Op: s.dialect.name + ".list", Kind: intake.KindRead, Err: err}
	}
	subs := make([]models.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, models.Submission{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			Phone:     r.Phone,
			Message:   r.Message,
			Timestamp: r.SubmittedAt,
		})
	}
	return subs, nil
}

// Count implements Store.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, sqlCount); err != nil {
		return 0, &intake.StoreError{Op: s.dialect.name + ".count", Kind: intake.KindRead, Err: err}
	}
	return n, nil
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLStore) Close(ctx context.Context) error {
	return s.db.Close()
}
