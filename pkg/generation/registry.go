package generation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task describes one in-flight run.
type Task struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartedAt time.Time `json:"started_at"`
}

// Registry tracks detached runs by publish date. Several runs for the same
// date may be live at once; each is tracked under its own task ID.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]map[string]Task // date -> task ID -> task

	// idle is closed when live drops to zero; a fresh channel is made when
	// the first run after an idle period begins.
	live int
	idle chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]map[string]Task)}
}

// begin registers a run for date. When exclusive is set and a run for the
// date is already live, nothing is registered and ok is false.
func (r *Registry) begin(date string, exclusive bool) (task Task, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exclusive && len(r.tasks[date]) > 0 {
		return Task{}, false
	}

	task = Task{ID: uuid.NewString(), Date: date, StartedAt: time.Now().UTC()}
	if r.tasks[date] == nil {
		r.tasks[date] = make(map[string]Task)
	}
	r.tasks[date][task.ID] = task
	if r.live == 0 {
		r.idle = make(chan struct{})
	}
	r.live++
	return task, true
}

func (r *Registry) finish(task Task) {
	r.mu.Lock()
	delete(r.tasks[task.Date], task.ID)
	if len(r.tasks[task.Date]) == 0 {
		delete(r.tasks, task.Date)
	}
	r.live--
	if r.live == 0 {
		close(r.idle)
	}
	r.mu.Unlock()
}

// Running reports whether a run for date is in flight.
func (r *Registry) Running(date string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks[date]) > 0
}

// Active returns all in-flight runs, oldest first.
func (r *Registry) Active() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := make([]Task, 0, len(r.tasks))
	for _, byID := range r.tasks {
		for _, task := range byID {
			active = append(active, task)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartedAt.Before(active[j].StartedAt)
	})
	return active
}

// Wait blocks until no run is in flight or ctx is done. Runs that begin
// while Wait is blocked extend the wait. It is safe to call concurrently
// with new runs and leaves nothing behind when ctx expires.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	if r.live == 0 {
		r.mu.Unlock()
		return nil
	}
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
