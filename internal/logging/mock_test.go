package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldUserID, "u1")
	child.WithError(errors.New("bad")).Error("failed", F(FieldCount, 2))
	root.Info("plain")

	entries := root.Entries()
	require.Len(t, entries, 2)

	assert.Equal(t, "ERROR", entries[0].Level)
	assert.EqualError(t, entries[0].Error, "bad")
	v, ok := entries[0].FieldValue(FieldUserID)
	assert.True(t, ok)
	assert.Equal(t, "u1", v)
	v, ok = entries[0].FieldValue(FieldCount)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	assert.True(t, root.HasEntry("INFO", "plain"))
	assert.Len(t, root.EntriesByLevel("ERROR"), 1)
}

func TestMockLogger_ZeroValueUsable(t *testing.T) {
	var m MockLogger
	m.Warn("zero")
	assert.True(t, m.HasEntry("WARN", "zero"))
}

func TestMockLogger_ConcurrentWrites(t *testing.T) {
	m := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.WithField(FieldJobID, "j").Debug("tick")
		}()
	}
	wg.Wait()
	assert.Len(t, m.Entries(), 20)
}

func TestNop(t *testing.T) {
	l := Nop().WithField("a", 1).WithError(errors.New("x"))
	l.Error("ignored")
}
