package transaction

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	logger := zerolog.Nop()
	return NewManager(&logger)
}

func TestNewManager(t *testing.T) {
	manager := newTestManager()
	require.NotNil(t, manager)
	assert.Empty(t, manager.undo)
	assert.Empty(t, manager.cleanups)
}

func TestRollback_Order(t *testing.T) {
	manager := newTestManager()

	var operations []string
	record := func(name string) StepFunc {
		return func() error {
			operations = append(operations, name)
			return nil
		}
	}

	manager.Cleanup("remove tmp-expand", record("cleanup"))
	manager.Add("move debianized tree", record("undo1"))
	manager.Add("create orig dir", record("undo2"))

	require.NoError(t, manager.Rollback())
	assert.Equal(t, []string{"undo2", "undo1", "cleanup"}, operations)
	assert.Empty(t, manager.undo)
	assert.Empty(t, manager.cleanups)
}

func TestCommit_RunsOnlyCleanups(t *testing.T) {
	manager := newTestManager()

	var operations []string
	manager.Add("undo", func() error {
		operations = append(operations, "undo")
		return nil
	})
	manager.Cleanup("cleanup", func() error {
		operations = append(operations, "cleanup")
		return nil
	})

	require.NoError(t, manager.Commit())
	assert.Equal(t, []string{"cleanup"}, operations)

	// A second rollback has nothing left to do
	require.NoError(t, manager.Rollback())
	assert.Equal(t, []string{"cleanup"}, operations)
}

func TestRollback_CollectsErrors(t *testing.T) {
	manager := newTestManager()

	ran := false
	manager.Add("first", func() error {
		ran = true
		return nil
	})
	manager.Add("second", func() error { return errors.New("boom") })

	err := manager.Rollback()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, ran, "remaining steps still run after a failure")
}

func TestFinish(t *testing.T) {
	t.Run("success commits", func(t *testing.T) {
		manager := newTestManager()
		undone, cleaned := false, false
		manager.Add("undo", func() error { undone = true; return nil })
		manager.Cleanup("cleanup", func() error { cleaned = true; return nil })

		var err error
		manager.Finish(&err)
		assert.NoError(t, err)
		assert.False(t, undone)
		assert.True(t, cleaned)
	})

	t.Run("failure rolls back and keeps the original error", func(t *testing.T) {
		manager := newTestManager()
		undone, cleaned := false, false
		manager.Add("undo", func() error { undone = true; return nil })
		manager.Cleanup("cleanup", func() error { cleaned = true; return errors.New("rm failed") })

		original := errors.New("dpkg-source failed")
		err := original
		manager.Finish(&err)

		assert.True(t, undone)
		assert.True(t, cleaned)
		assert.ErrorIs(t, err, original)
		assert.Contains(t, err.Error(), "rm failed")
	})
}
