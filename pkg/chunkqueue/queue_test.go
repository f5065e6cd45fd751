package chunkqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(q *Queue, n int) {
	for i := 0; i < n; i++ {
		q.Enqueue(Entry{X: int32(i), Z: 0})
	}
}

func TestInitialStateSendsOnceThenWaits(t *testing.T) {
	q := New()
	fill(q, 5)

	batch := q.Drain()
	require.NotEmpty(t, batch)

	// Now Waiting: no further sends until an ack arrives.
	require.Nil(t, q.Drain())
	require.Equal(t, 0, q.Len())
}

func TestAcknowledgeResetsToCountZero(t *testing.T) {
	q := New()
	fill(q, 30)
	q.Drain() // Initial -> Waiting

	q.Acknowledge(8.2)
	require.Equal(t, 9, q.chunksPerTick)

	batch := q.Drain()
	require.Len(t, batch, 9)
}

func TestCountCeilingBlocksAtTen(t *testing.T) {
	q := New()
	fill(q, 200)
	q.Acknowledge(1) // Count(0), chunksPerTick=1

	for i := 0; i < countCeiling; i++ {
		batch := q.Drain()
		require.NotEmpty(t, batch)
	}
	require.Equal(t, countCeiling, q.count)
	require.Nil(t, q.Drain())
}

func TestJavaDispatcherWrapsBatch(t *testing.T) {
	var started, ended bool
	var sent int
	var endCount int

	d := JavaDispatcher{
		SendStart: func() { started = true },
		SendChunk: func(Entry) { sent++ },
		SendEnd:   func(n int) { ended = true; endCount = n },
	}
	d.DispatchBatch([]Entry{{}, {}, {}})

	require.True(t, started)
	require.True(t, ended)
	require.Equal(t, 3, sent)
	require.Equal(t, 3, endCount)
}

func TestBedrockDispatcherSendsEachChunk(t *testing.T) {
	var sent int
	d := BedrockDispatcher{SendChunk: func(Entry) { sent++ }}
	d.DispatchBatch([]Entry{{}, {}})
	require.Equal(t, 2, sent)
}

func TestEmptyQueueNeverSends(t *testing.T) {
	q := New()
	require.Nil(t, q.Drain())
}
