package coro

import "errors"

var (
	// ErrNilSwitcher is returned by New when no Switcher is supplied.
	ErrNilSwitcher = errors.New("coro: switcher must not be nil")

	// ErrNilFunc is returned by New/Reset when no entry function is supplied.
	ErrNilFunc = errors.New("coro: function must not be nil")

	// ErrEnded is returned by Resume/ResumeValue when called on a Coro whose
	// function has already returned, per spec: "subsequent resume on the
	// same Coro without a reset is undefined" — here it is instead reported.
	ErrEnded = errors.New("coro: cannot resume a coroutine that has ended")

	// ErrRunning is returned by Free/Reset when the Coro is the one
	// currently calling them (a coroutine may not free or reset itself).
	ErrRunning = errors.New("coro: coroutine cannot free or reset itself while running")

	// ErrBusySwitcher is returned when a Switcher already bound to a
	// different live Coro is reused before that Coro is freed.
	ErrBusySwitcher = errors.New("coro: switcher is bound to another live coroutine")
)

// errKilled unwinds a suspended coroutine's goroutine when Free or Reset
// abandons it without a final resume. It is always recovered internally by
// run and never observed outside this package.
type errKilled struct{}

func (errKilled) Error() string { return "coro: coroutine killed while suspended" }
