package chat

// Signature is an opaque message signature byte string (a chat session's
// signed-message signature, treated as an opaque blob by this package).
type Signature string

const (
	// fullCacheCap is the bound on SignatureCache.full: §3/§4.8 cap of 128.
	fullCacheCap = 128
	// lastSeenCap is the bound on SignatureCache.lastSeen: cap of 20.
	lastSeenCap = 20
)

// PreviousMessage is the wire-shape §4.8's indexing produces: either an
// index into the recipient's cache (Signature empty) or the literal
// signature when the recipient hasn't seen it (ID == 0).
type PreviousMessage struct {
	ID        int32
	Signature Signature
}

// SignatureCache is the per-player bounded signature history described in
// §3/§4.8: `full` is a most-recent-first deque capped at 128; `lastSeen` is
// an oldest-first deque of acknowledged signatures capped at 20.
type SignatureCache struct {
	full     []Signature // most-recent first
	lastSeen []Signature // oldest first
}

// NewSignatureCache returns an empty cache.
func NewSignatureCache() *SignatureCache {
	return &SignatureCache{}
}

// CacheSignatures inserts any signatures not already present, appended at
// the back (the oldest end) of the full cache, stopping once the 128 cap
// is reached.
func (c *SignatureCache) CacheSignatures(sigs []Signature) {
	for _, sig := range sigs {
		if len(c.full) >= fullCacheCap {
			return
		}
		if c.contains(sig) {
			continue
		}
		c.full = append(c.full, sig)
	}
}

func (c *SignatureCache) contains(sig Signature) bool {
	for _, s := range c.full {
		if s == sig {
			return true
		}
	}
	return false
}

// AddSeenSignature pushes sig onto the back of lastSeen (popping the front
// if that exceeds 20), then pushes sig onto the front of the full cache,
// popping from the back of the full cache until it is under the 128 cap.
func (c *SignatureCache) AddSeenSignature(sig Signature) {
	c.lastSeen = append(c.lastSeen, sig)
	if len(c.lastSeen) > lastSeenCap {
		c.lastSeen = c.lastSeen[1:]
	}

	for len(c.full) >= fullCacheCap {
		c.full = c.full[:len(c.full)-1]
	}
	c.full = append([]Signature{sig}, c.full...)
}

// Len returns the current full-cache and lastSeen sizes, for invariant
// checks ("≤128" / "≤20").
func (c *SignatureCache) Len() (full, lastSeen int) {
	return len(c.full), len(c.lastSeen)
}

// IndexOf returns the position of sig in the full cache (0 = most recent)
// and whether it was found.
func (c *SignatureCache) IndexOf(sig Signature) (int, bool) {
	for i, s := range c.full {
		if s == sig {
			return i, true
		}
	}
	return 0, false
}

// IndexedFor computes the §4.8 LastSeen.indexed_for(recipient) projection:
// for each of this cache's lastSeen signatures, look it up in recipient's
// full cache. A hit at position i emits PreviousMessage{ID: i+1}; a miss
// emits PreviousMessage{ID: 0, Signature: sig}. Deterministic: repeated
// calls with unchanged caches produce identical output.
func (c *SignatureCache) IndexedFor(recipient *SignatureCache) []PreviousMessage {
	out := make([]PreviousMessage, 0, len(c.lastSeen))
	for _, sig := range c.lastSeen {
		if i, ok := recipient.IndexOf(sig); ok {
			out = append(out, PreviousMessage{ID: int32(i + 1)})
		} else {
			out = append(out, PreviousMessage{ID: 0, Signature: sig})
		}
	}
	return out
}
