package trace

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/ardnew/softmci/pkg"
)

// SQLiteWriter stores tasks in a SQLite database, inserting in batches
// inside one transaction.
type SQLiteWriter struct {
	mu        sync.Mutex
	db        *sql.DB
	statement *sql.Stmt

	dbName    string
	tasks     []Task
	batchSize int
}

// NewSQLiteWriter creates a writer for path. The ".sqlite3" suffix is
// appended. An empty path picks a unique name.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{
		dbName:    path,
		batchSize: 1000,
	}
}

// Path returns the database file name, available after Init.
func (t *SQLiteWriter) Path() string {
	return t.dbName + ".sqlite3"
}

// DB returns the open database handle.
func (t *SQLiteWriter) DB() *sql.DB {
	return t.db
}

// Init creates the database, its table and the insert statement, and
// registers a flush at exit.
func (t *SQLiteWriter) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dbName == "" {
		t.dbName = "softmci_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%w: file %s already exists", pkg.ErrInvalidParameter, filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}
	t.db = db

	_, err = db.Exec(`CREATE TABLE trace (
		task_id    VARCHAR(200) NOT NULL PRIMARY KEY,
		parent_id  VARCHAR(200),
		kind       VARCHAR(100),
		what       VARCHAR(100),
		location   VARCHAR(100),
		start_time INTEGER,
		end_time   INTEGER,
		bytes      INTEGER,
		error      VARCHAR(200)
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX trace_kind ON trace (kind)`)
	if err != nil {
		return err
	}

	t.statement, err = db.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	atexit.Register(func() {
		if err := t.Close(); err != nil {
			pkg.LogWarn(pkg.ComponentTrace, "closing SQLite trace", "error", err)
		}
	})

	pkg.LogInfo(pkg.ComponentTrace, "SQLite trace created", "file", filename)
	return nil
}

// Write buffers a task, flushing when the batch is full.
func (t *SQLiteWriter) Write(task Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.batchSize {
		return t.flushLocked()
	}
	return nil
}

// Flush inserts all buffered tasks in one transaction.
func (t *SQLiteWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *SQLiteWriter) flushLocked() error {
	if len(t.tasks) == 0 || t.db == nil {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(t.statement)
	for _, task := range t.tasks {
		_, err := stmt.Exec(
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.Start.UnixNano(),
			task.End.UnixNano(),
			task.Bytes,
			task.Error,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting task %s: %w", task.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	t.tasks = nil
	return nil
}

// Close flushes and closes the database. It is safe to call more than once.
func (t *SQLiteWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db == nil {
		return nil
	}
	ferr := t.flushLocked()
	if t.statement != nil {
		_ = t.statement.Close()
	}
	cerr := t.db.Close()
	t.db = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}
