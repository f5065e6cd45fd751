package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignatureCacheBounds(t *testing.T) {
	c := NewSignatureCache()
	for i := 0; i < 500; i++ {
		c.AddSeenSignature(Signature(fmt.Sprintf("sig-%d", i)))
		full, lastSeen := c.Len()
		require.LessOrEqual(t, full, 128)
		require.LessOrEqual(t, lastSeen, 20)
	}
}

func TestCacheSignaturesStopsAtCap(t *testing.T) {
	c := NewSignatureCache()
	sigs := make([]Signature, 200)
	for i := range sigs {
		sigs[i] = Signature(fmt.Sprintf("sig-%d", i))
	}
	c.CacheSignatures(sigs)
	full, _ := c.Len()
	require.Equal(t, 128, full)
}

func TestIndexedForDeterministic(t *testing.T) {
	sender := NewSignatureCache()
	sender.AddSeenSignature("a")
	sender.AddSeenSignature("b")

	recipient := NewSignatureCache()
	recipient.AddSeenSignature("a")

	first := sender.IndexedFor(recipient)
	second := sender.IndexedFor(recipient)
	require.Equal(t, first, second)
}

func TestIndexedForHitAndMiss(t *testing.T) {
	sender := NewSignatureCache()
	sender.AddSeenSignature("known")

	recipient := NewSignatureCache()
	recipient.AddSeenSignature("known")

	result := sender.IndexedFor(recipient)
	require.Len(t, result, 1)
	require.NotZero(t, result[0].ID)
	require.Empty(t, result[0].Signature)

	sender2 := NewSignatureCache()
	sender2.AddSeenSignature("unknown-to-recipient")
	result2 := sender2.IndexedFor(recipient)
	require.Len(t, result2, 1)
	require.Equal(t, int32(0), result2[0].ID)
	require.Equal(t, Signature("unknown-to-recipient"), result2[0].Signature)
}
