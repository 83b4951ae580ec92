package trace

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu    sync.Mutex
	tasks []Task
	err   error
}

func (m *memWriter) Init() error  { return nil }
func (m *memWriter) Flush() error { return nil }
func (m *memWriter) Close() error { return nil }

func (m *memWriter) Write(task Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return m.err
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestRecorder(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w := &memWriter{}
	r := NewRecorder(w)
	r.now = fixedClock(base, base.Add(3*time.Millisecond))

	task := Task{ID: NewTaskID(), Kind: KindRequest, What: "READ_SINGLE_BLOCK", Where: "sdi0"}
	r.StartTask(task)
	assert.Equal(t, 1, r.Inflight())

	task.Bytes = 512
	r.EndTask(task)
	assert.Zero(t, r.Inflight())

	require.Len(t, w.tasks, 1)
	got := w.tasks[0]
	assert.Equal(t, "sdi0", got.Where)
	assert.Equal(t, 512, got.Bytes)
	assert.Equal(t, 3*time.Millisecond, got.Duration())
	assert.False(t, got.Failed())
}

func TestRecorder_UnmatchedEnd(t *testing.T) {
	w := &memWriter{}
	r := NewRecorder(w)
	r.EndTask(Task{ID: "missing"})
	assert.Empty(t, w.tasks)
}

func TestRecorder_WriteError(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	r := NewRecorder(w)
	r.StartTask(Task{ID: "a", Kind: KindRequest})
	r.EndTask(Task{ID: "a", Error: "timeout"})
	require.Len(t, w.tasks, 1)
	assert.True(t, w.tasks[0].Failed())
}

func TestNewTaskID(t *testing.T) {
	a, b := NewTaskID(), NewTaskID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 20)
}

func TestStatsTracer(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStatsTracer(KindFilter(KindRequest))

	s.StartTask(Task{ID: "1", Kind: KindRequest, Start: base})
	s.EndTask(Task{ID: "1", Kind: KindRequest, End: base.Add(2 * time.Millisecond), Bytes: 512})

	s.StartTask(Task{ID: "2", Kind: KindRequest, Start: base})
	s.EndTask(Task{ID: "2", Kind: KindRequest, End: base.Add(4 * time.Millisecond), Error: "timeout"})

	s.StartTask(Task{ID: "3", Kind: KindStop, Start: base})
	s.EndTask(Task{ID: "3", Kind: KindStop, End: base.Add(time.Millisecond)})

	st := s.Stats(KindRequest)
	assert.Equal(t, uint64(2), st.Count)
	assert.Equal(t, uint64(1), st.Failures)
	assert.Equal(t, uint64(512), st.Bytes)
	assert.Equal(t, 3*time.Millisecond, st.MeanTime())

	assert.Zero(t, s.Stats(KindStop).Count)
	assert.Equal(t, []string{KindRequest}, s.Kinds())
	assert.Zero(t, KindStats{}.MeanTime())
}

func TestTee(t *testing.T) {
	w1, w2 := &memWriter{}, &memWriter{}
	tr := Tee(NewRecorder(w1), NewRecorder(w2))
	tr.StartTask(Task{ID: "x", Kind: KindStop})
	tr.EndTask(Task{ID: "x", Kind: KindStop})
	assert.Len(t, w1.tasks, 1)
	assert.Len(t, w2.tasks, 1)
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace")
	w := NewCSVWriter(path)
	require.NoError(t, w.Init())

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write(Task{
		ID: "c1", ParentID: "p1", Kind: KindStop, What: "STOP_TRANSMISSION(0x00000000)",
		Where: "sdi0", Start: start, End: start.Add(time.Millisecond), Bytes: 0, Error: "timeout",
	}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "c1", rows[1][0])
	assert.Equal(t, "p1", rows[1][1])
	assert.Equal(t, "STOP_TRANSMISSION(0x00000000)", rows[1][3])
	assert.Equal(t, "timeout", rows[1][8])
}

func TestCSVWriter_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup")
	require.NoError(t, os.WriteFile(path+".csv", nil, 0o644))
	assert.Error(t, NewCSVWriter(path).Init())
}

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace")
	w := NewSQLiteWriter(path)
	if err := w.Init(); err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("sqlite3 driver requires cgo")
		}
		require.NoError(t, err)
	}

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, w.Write(Task{
			ID: id, Kind: KindRequest, What: "WRITE_BLOCK", Where: "sdi0",
			Start: start, End: start.Add(time.Millisecond), Bytes: 512,
		}))
	}
	require.NoError(t, w.Flush())

	var count, bytes int
	row := w.DB().QueryRow(`SELECT COUNT(*), SUM(bytes) FROM trace WHERE kind = ?`, KindRequest)
	require.NoError(t, row.Scan(&count, &bytes))
	assert.Equal(t, 3, count)
	assert.Equal(t, 1536, bytes)

	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", w.Path())
	require.NoError(t, err)
	defer db.Close()
	var loc string
	require.NoError(t, db.QueryRow(`SELECT location FROM trace WHERE task_id = 'b'`).Scan(&loc))
	assert.Equal(t, "sdi0", loc)
}
