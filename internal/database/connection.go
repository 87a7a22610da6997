package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// driver holds the connected driver name for schema selection
var driver string

// Connect establishes a connection to the submission history database.
// DATABASE_URL selects postgres; without it a local SQLite file is used.
func Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		driver = "postgres"
		return initializeSchema()
	}

	// Create data directory if it doesn't exist
	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "jdoit.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	driver = "sqlite3"
	return initializeSchema()
}

// ConnectFile opens a SQLite database at the given path. Used by tests.
func ConnectFile(path string) error {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	DB = db
	driver = "sqlite3"
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "postgres" {
		idColumn = "id SERIAL PRIMARY KEY"
	}

	_, err := DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS submissions (
			%s,
			user_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			reference_text TEXT NOT NULL,
			recognized_text TEXT,
			accuracy REAL DEFAULT 0,
			fluency REAL DEFAULT 0,
			completeness REAL DEFAULT 0,
			pronunciation REAL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create submissions table: %v", err)
	}

	_, err = DB.Exec(`CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create submissions index: %v", err)
	}

	return nil
}
