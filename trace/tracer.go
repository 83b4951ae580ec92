package trace

import (
	"sync"
	"time"

	"github.com/ardnew/softmci/pkg"
)

// Tracer collects task events. Implementations must be safe for concurrent
// use.
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)
}

// Writer persists finished tasks.
type Writer interface {
	Init() error
	Write(task Task) error
	Flush() error
	Close() error
}

type multiTracer []Tracer

// Tee returns a Tracer that forwards every event to each of tracers.
func Tee(tracers ...Tracer) Tracer {
	return multiTracer(tracers)
}

func (m multiTracer) StartTask(task Task) {
	for _, t := range m {
		t.StartTask(task)
	}
}

func (m multiTracer) EndTask(task Task) {
	for _, t := range m {
		t.EndTask(task)
	}
}

// Recorder pairs StartTask and EndTask events and writes finished tasks.
type Recorder struct {
	mu       sync.Mutex
	writer   Writer
	now      func() time.Time
	inflight map[string]Task
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{
		writer:   w,
		now:      time.Now,
		inflight: make(map[string]Task),
	}
}

// StartTask records the start time of task.
func (r *Recorder) StartTask(task Task) {
	if task.Start.IsZero() {
		task.Start = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[task.ID] = task
}

// EndTask completes the task started with the same ID and writes it. End
// events without a matching start are dropped.
func (r *Recorder) EndTask(task Task) {
	end := task.End
	if end.IsZero() {
		end = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	orig, ok := r.inflight[task.ID]
	if !ok {
		return
	}
	delete(r.inflight, task.ID)

	orig.End = end
	orig.Bytes = task.Bytes
	orig.Error = task.Error
	if err := r.writer.Write(orig); err != nil {
		pkg.LogWarn(pkg.ComponentTrace, "trace write failed", "id", orig.ID, "error", err)
	}
}

// Inflight returns the number of started but unfinished tasks.
func (r *Recorder) Inflight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Flush flushes the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Flush()
}
