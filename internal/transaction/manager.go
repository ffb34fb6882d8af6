package transaction

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// StepFunc is a function that reverses or cleans up after an operation
type StepFunc func() error

type step struct {
	name string
	fn   StepFunc
}

// Manager tracks the filesystem changes of one build. Undo steps run only on
// Rollback; cleanup steps run on both Rollback and Commit.
type Manager struct {
	undo     []step
	cleanups []step
	mu       sync.Mutex
	logger   *zerolog.Logger
}

// NewManager creates a new transaction manager
func NewManager(logger *zerolog.Logger) *Manager {
	return &Manager{
		undo:     make([]step, 0),
		cleanups: make([]step, 0),
		logger:   logger,
	}
}

// Add registers an undo step, executed by Rollback
func (m *Manager) Add(name string, fn StepFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, step{name, fn})
}

// Cleanup registers a step executed when the transaction ends either way
func (m *Manager) Cleanup(name string, fn StepFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, step{name, fn})
}

// Rollback executes all undo steps and then all cleanup steps, each in reverse order (LIFO)
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undo) > 0 && m.logger != nil {
		m.logger.Info().Msg("Rolling back build...")
	}

	errs := m.run("rolling back", m.undo)
	errs = append(errs, m.run("cleaning up", m.cleanups)...)
	m.undo, m.cleanups = nil, nil

	if len(errs) > 0 {
		return fmt.Errorf("rollback completed with errors: %w", errors.Join(errs...))
	}
	return nil
}

// Commit drops the undo steps and executes the cleanup steps
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := m.run("cleaning up", m.cleanups)
	m.undo, m.cleanups = nil, nil

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with errors: %w", errors.Join(errs...))
	}
	return nil
}

// Finish commits when *errp is nil and rolls back otherwise, joining any
// rollback failure into *errp. Meant to be deferred.
func (m *Manager) Finish(errp *error) {
	if *errp == nil {
		*errp = m.Commit()
		return
	}
	if rbErr := m.Rollback(); rbErr != nil {
		*errp = errors.Join(*errp, rbErr)
	}
}

func (m *Manager) run(action string, steps []step) []error {
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		op := steps[i]
		if m.logger != nil {
			m.logger.Debug().Str("operation", op.name).Msg(action)
		}

		if err := op.fn(); err != nil {
			errs = append(errs, fmt.Errorf("failed %s '%s': %w", action, op.name, err))
			if m.logger != nil {
				m.logger.Error().Err(err).Str("operation", op.name).Msg(action + " failed")
			}
		}
	}
	return errs
}
