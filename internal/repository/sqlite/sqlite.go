package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/msomdec/task-tracker/internal/domain"
	"github.com/msomdec/task-tracker/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps the shared SQLite connection pool and hands out repositories
// bound to it.
type DB struct {
	SQLDB *sql.DB

	users *UserRepository
	tasks *TaskRepository
}

// New opens a SQLite database at the given path and configures it for use.
// Every pooled connection gets WAL mode, foreign keys and a busy timeout.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SQLDB: sqlDB}
	db.users = NewUserRepository(db)
	db.tasks = NewTaskRepository(db)
	return db, nil
}

func dsn(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	return "file:" + dbPath + "?" + q.Encode()
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SQLDB)
}

// Ping runs a trivial query so a healthy result means SQLite answered.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.SQLDB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.SQLDB.Close()
}

// Users returns the user repository.
func (db *DB) Users() domain.UserRepository {
	return db.users
}

// Tasks returns the task repository.
func (db *DB) Tasks() domain.TaskRepository {
	return db.tasks
}
