package coro

import "log/slog"

// Worker owns a Switcher. It is the Go-native home for "a worker thread" in
// the concurrency model: every Coro created through Worker.New is bound to
// the Worker's Switcher, so at most one of them is live at a time — New
// reports ErrBusySwitcher until the previous Coro has been freed. Worker
// itself does not resume Coros; its caller does.
type Worker struct {
	Switcher *Switcher
	Logger   *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithLogger sets the Worker's Logger. Nothing in this package writes to
// it.
func WithLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) { w.Logger = l }
}

// NewWorker creates a Worker with its own Switcher.
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{Switcher: NewSwitcher(), Logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// New creates a Coro bound to this worker's Switcher.
func (w *Worker) New(function Func, data any) (*Coro, error) {
	return New(w.Switcher, function, data)
}
