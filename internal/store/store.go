package store

import (
	"sync"
	"time"

	"github.com/smirkdb/smirk/internal/util"
)

// Store owns the key→Record map, the prefix trie over the live keys, and
// the active search mode. A single exclusive mutex guards all three; every
// wire command maps to exactly one method call here, so command execution
// is totally ordered across all connections.
type Store struct {
	mu    sync.Mutex
	clock util.Clock

	mode    SearchMode
	records map[string]*Record
	trie    *Trie
}

type Options struct {
	Mode  SearchMode
	Clock util.Clock
}

func New(opts Options) *Store {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Store{
		clock:   clock,
		mode:    opts.Mode,
		records: make(map[string]*Record),
		trie:    NewTrie(),
	}
}

// Ack reports a completed write: the key, the tag of the kind actually
// stored, and the tag the client declared.
type Ack struct {
	Key      string
	Stored   string
	Declared string
}

// Get returns the live value at key only when the stored kind equals the
// requested kind. A mismatch is a distinct outcome from an absent key.
func (s *Store) Get(key string, kind Kind) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(key)
	if !ok {
		return Value{}, &KeyNotFoundError{Key: key}
	}
	if rec.Value.Kind() != kind {
		return Value{}, &TypeMismatchError{Key: key, Requested: kind.Tag()}
	}
	return rec.Value, nil
}

// Set parses text with the kind's canonical parser and, on success,
// unconditionally replaces any prior record at key, resetting its ttl to
// none. A parse failure leaves the prior record untouched.
func (s *Store) Set(key string, kind Kind, declared, text string) (Ack, error) {
	val, err := ParseValue(kind, text)
	if err != nil {
		return Ack{}, &ParseError{Key: key, Raw: text, Requested: kind.Tag()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, newRecord(val, declared, s.clock.Now()))
	return Ack{Key: key, Stored: kind.Tag(), Declared: declared}, nil
}

// BinarySet stores raw bytes under the opaque-bytes kind. It always
// succeeds; this is the fallback for unrecognized type tags.
func (s *Store) BinarySet(key string, value []byte, declared string) Ack {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, newRecord(BytesValue(value), declared, s.clock.Now()))
	return Ack{Key: key, Stored: KindBytes.Tag(), Declared: declared}
}

// Del removes the given keys from the map and the trie in one critical
// section, returning how many live records were removed.
func (s *Store) Del(keys ...string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed uint64
	for _, key := range keys {
		if _, ok := s.lookup(key); ok {
			s.remove(key)
			removed++
		}
	}
	return removed
}

// Exists reports whether key holds a live record.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(key)
	return ok
}

// TTL reports the remaining seconds before expiry, clamped at zero.
// expires is false for records that never expire. Unlike the other reads,
// TTL answers for an expired-but-present record so the clamp is observable.
func (s *Store) TTL(key string) (remaining uint64, expires bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return 0, false, &KeyNotFoundError{Key: key}
	}
	remaining, expires = rec.RemainingTTL(s.clock.Now())
	return remaining, expires, nil
}

// SetTTL replaces the ttl seconds of an existing record without resetting
// its countdown start. It reports whether the key was found.
func (s *Store) SetTTL(key string, secs uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(key)
	if !ok {
		return false
	}
	rec.SetTTL(secs)
	return true
}

// ClearTTL makes an existing record never expire.
func (s *Store) ClearTTL(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(key)
	if !ok {
		return false
	}
	rec.ClearTTL()
	return true
}

// Type returns the stored and client-declared tags of a live record.
func (s *Store) Type(key string) (stored, declared string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lookup(key)
	if !ok {
		return "", "", &KeyNotFoundError{Key: key}
	}
	return rec.StoredTag(), rec.Declared, nil
}

// Keys evaluates pattern under the active search mode. Expired records are
// swept first so neither the key list nor the trie reports dead keys.
func (s *Store) Keys(pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return searchKeys(s.mode, pattern, keys, s.trie)
}

// SetSearchMode changes the process-wide KEYS strategy.
func (s *Store) SetSearchMode(m SearchMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func (s *Store) SearchMode() SearchMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Accumulate folds Get across keys in order, adding into a zero total of
// the requested kind. The first missing or mismatched key aborts the whole
// operation; checked integer kinds abort on overflow instead of wrapping.
func (s *Store) Accumulate(kind Kind, keys []string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := zeroValue(kind)
	for _, key := range keys {
		rec, ok := s.lookup(key)
		if !ok {
			return Value{}, &KeyNotFoundError{Key: key}
		}
		if rec.Value.Kind() != kind {
			return Value{}, &TypeMismatchError{Key: key, Requested: kind.Tag()}
		}
		sum, ok := addChecked(total, rec.Value)
		if !ok {
			return Value{}, &OverflowError{Requested: kind.Tag()}
		}
		total = sum
	}
	return total, nil
}

// Len reports the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired()
	return len(s.records)
}

// lookup resolves key to a live record. An expired record is removed from
// the map and the trie on access and treated as absent.
func (s *Store) lookup(key string) (*Record, bool) {
	rec, ok := s.records[key]
	if !ok {
		return nil, false
	}
	if rec.Expired(s.clock.Now()) {
		s.remove(key)
		return nil, false
	}
	return rec, true
}

// put inserts or replaces a record, registering new keys in the trie.
// Overwrites leave the trie counts alone: the key is already indexed.
func (s *Store) put(key string, rec *Record) {
	if _, exists := s.records[key]; !exists {
		s.trie.Insert(key)
	}
	s.records[key] = rec
}

func (s *Store) remove(key string) {
	delete(s.records, key)
	s.trie.Remove(key)
}

func (s *Store) sweepExpired() {
	now := s.clock.Now()
	for key, rec := range s.records {
		if rec.Expired(now) {
			s.remove(key)
		}
	}
}

// Entry is one record flattened for snapshotting. Scalar values round-trip
// through their canonical text form; bytes values carry the raw payload.
type Entry struct {
	Key      string
	Stored   string
	Declared string
	Data     []byte
	TTL      uint64
	HasTTL   bool
	TTLStart time.Time
}

// Dump flattens every live record for persistence.
func (s *Store) Dump() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepExpired()
	out := make([]Entry, 0, len(s.records))
	for key, rec := range s.records {
		var data []byte
		if rec.Value.Kind() == KindBytes {
			data = append([]byte(nil), rec.Value.Bytes()...)
		} else {
			data = []byte(rec.Value.Format())
		}
		out = append(out, Entry{
			Key:      key,
			Stored:   rec.StoredTag(),
			Declared: rec.Declared,
			Data:     data,
			TTL:      rec.ttl,
			HasTTL:   rec.hasTTL,
			TTLStart: rec.ttlStart,
		})
	}
	return out
}

// Restore loads snapshot entries into an empty store. Entries that no
// longer parse under their stored tag are skipped.
func (s *Store) Restore(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ent := range entries {
		kind, ok := KindFromTag(ent.Stored)
		var val Value
		if !ok || kind == KindBytes {
			val = BytesValue(ent.Data)
		} else {
			parsed, err := ParseValue(kind, string(ent.Data))
			if err != nil {
				continue
			}
			val = parsed
		}
		rec := newRecord(val, ent.Declared, ent.TTLStart)
		if ent.HasTTL {
			rec.SetTTL(ent.TTL)
		}
		s.put(ent.Key, rec)
	}
}
