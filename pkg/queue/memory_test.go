package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_EnqueueAndReadAll(t *testing.T) {
	q := NewInMemoryQueue(10)

	require.NoError(t, q.Enqueue("first"))
	require.NoError(t, q.Enqueue("second"))
	assert.Equal(t, 2, q.Size())

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"first", "second"}, items)
	assert.Equal(t, 0, q.Size())

	items, err = q.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryQueue_EnqueueFull(t *testing.T) {
	q := NewInMemoryQueue(1)

	require.NoError(t, q.Enqueue("first"))
	assert.Error(t, q.Enqueue("second"))
	assert.Equal(t, 1, q.Size())
}

func TestInMemoryQueue_ClearQueue(t *testing.T) {
	q := NewInMemoryQueue(10)

	require.NoError(t, q.Enqueue("first"))
	require.NoError(t, q.Enqueue("second"))
	q.ClearQueue()

	assert.Equal(t, 0, q.Size())
}
