package store

import "time"

// Record is one stored value with its type tags and TTL state. Declared is
// the tag the writing client named; it normally equals the stored kind's tag
// but is kept separately for TYPE diagnostics.
type Record struct {
	Value    Value
	Declared string

	ttl      uint64
	hasTTL   bool
	ttlStart time.Time
}

func newRecord(v Value, declared string, now time.Time) *Record {
	return &Record{Value: v, Declared: declared, ttlStart: now}
}

// SetTTL replaces the ttl seconds. The countdown keeps running from the
// original write time: ttlStart is deliberately not reset.
func (r *Record) SetTTL(secs uint64) {
	r.ttl = secs
	r.hasTTL = true
}

// ClearTTL makes the record never expire.
func (r *Record) ClearTTL() {
	r.ttl = 0
	r.hasTTL = false
}

// Expired reports whether elapsed wall-clock time since the write meets or
// exceeds the ttl. Records without a ttl never expire.
func (r *Record) Expired(now time.Time) bool {
	if !r.hasTTL {
		return false
	}
	return r.elapsedSeconds(now) >= r.ttl
}

// RemainingTTL returns the seconds left before expiry, clamped at zero.
// expires is false when the record has no ttl.
func (r *Record) RemainingTTL(now time.Time) (remaining uint64, expires bool) {
	if !r.hasTTL {
		return 0, false
	}
	elapsed := r.elapsedSeconds(now)
	if elapsed >= r.ttl {
		return 0, true
	}
	return r.ttl - elapsed, true
}

func (r *Record) elapsedSeconds(now time.Time) uint64 {
	d := now.Sub(r.ttlStart)
	if d < 0 {
		return 0
	}
	return uint64(d / time.Second)
}

// StoredTag is the canonical tag of the kind actually stored.
func (r *Record) StoredTag() string { return r.Value.Kind().Tag() }
