package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/ardnew/softmci/pkg"
)

var csvHeader = []string{"ID", "ParentID", "Kind", "What", "Where", "Start", "End", "Bytes", "Error"}

// CSVWriter stores tasks in a CSV file.
type CSVWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer

	tasks      []Task
	bufferSize int
}

// NewCSVWriter creates a writer for path. The ".csv" suffix is appended. An
// empty path picks a unique name.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the file name, available after Init.
func (t *CSVWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the CSV file and registers a flush at exit. An existing file
// is not overwritten.
func (t *CSVWriter) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path == "" {
		t.path = "softmci_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("%w: file %s already exists", pkg.ErrInvalidParameter, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	t.file = file
	t.w = csv.NewWriter(file)
	if err := t.w.Write(csvHeader); err != nil {
		return err
	}

	atexit.Register(func() {
		if err := t.Close(); err != nil {
			pkg.LogWarn(pkg.ComponentTrace, "closing CSV trace", "error", err)
		}
	})

	pkg.LogInfo(pkg.ComponentTrace, "CSV trace created", "file", filename)
	return nil
}

// Write buffers a task, flushing when the buffer is full.
func (t *CSVWriter) Write(task Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		return t.flushLocked()
	}
	return nil
}

// Flush writes buffered tasks to the file.
func (t *CSVWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *CSVWriter) flushLocked() error {
	if t.w == nil {
		return nil
	}
	for _, task := range t.tasks {
		err := t.w.Write([]string{
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.Start.Format(time.RFC3339Nano),
			task.End.Format(time.RFC3339Nano),
			strconv.Itoa(task.Bytes),
			task.Error,
		})
		if err != nil {
			return err
		}
	}
	t.tasks = nil
	t.w.Flush()
	return t.w.Error()
}

// Close flushes and closes the file. It is safe to call more than once.
func (t *CSVWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	ferr := t.flushLocked()
	cerr := t.file.Close()
	t.file = nil
	t.w = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}
