package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smirkdb/smirk/internal/persistence"
	"github.com/smirkdb/smirk/internal/protocol"
	"github.com/smirkdb/smirk/internal/stats"
	"github.com/smirkdb/smirk/internal/store"
)

func dispatchLine(t *testing.T, st *store.Store, snap *persistence.Snapshotter, line string) Response {
	t.Helper()
	cmd, err := protocol.Parse(line)
	require.NoError(t, err, line)
	return Dispatch(st, snap, stats.New(), cmd)
}

func TestDispatchSetGet(t *testing.T) {
	st := store.New(store.Options{})

	resp := dispatchLine(t, st, nil, "SET i64 answer 42")
	assert.Equal(t, "Set key \"answer\" successfully. Stored-Type: i64, User-Type: i64\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "GET i64 answer")
	assert.Equal(t, "42\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "GET u64 answer")
	assert.Equal(t, "Value stored in key \"answer\" is not of type \"u64\".\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "GET i64 missing")
	assert.Equal(t, "Key \"missing\" not found.\n", string(resp.Body))
}

func TestDispatchParseError(t *testing.T) {
	st := store.New(store.Options{})
	resp := dispatchLine(t, st, nil, "SET i8 k 999")
	assert.Equal(t, "Setting key \"k\" failed. Could not parse \"999\" into \"i8\".\n", string(resp.Body))
}

func TestDispatchUnknownTagRoutesToBinary(t *testing.T) {
	st := store.New(store.Options{})

	resp := dispatchLine(t, st, nil, "SET blob k some raw payload")
	assert.Equal(t, "Set key \"k\" successfully. Stored-Type: bytes, User-Type: blob\n", string(resp.Body))

	// GET with any unrecognized tag reads the bytes kind back verbatim.
	resp = dispatchLine(t, st, nil, "GET blob k")
	assert.Equal(t, "some raw payload\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "TYPE k")
	assert.Equal(t, "Stored-Type: bytes, User-Type: blob\n", string(resp.Body))
}

func TestDispatchDelExists(t *testing.T) {
	st := store.New(store.Options{})
	dispatchLine(t, st, nil, "SET i64 a 1")
	dispatchLine(t, st, nil, "SET i64 b 2")

	resp := dispatchLine(t, st, nil, "EXISTS a")
	assert.Equal(t, "true\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "DEL a b missing")
	assert.Equal(t, "2\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "EXISTS a")
	assert.Equal(t, "false\n", string(resp.Body))
}

func TestDispatchKeys(t *testing.T) {
	st := store.New(store.Options{})
	dispatchLine(t, st, nil, "SET i64 apple 1")
	dispatchLine(t, st, nil, "SET i64 apricot 2")
	dispatchLine(t, st, nil, "SET i64 banana 3")

	resp := dispatchLine(t, st, nil, "KEYS a*")
	assert.Equal(t, "apple\napricot\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "KEYS zzz*")
	assert.Equal(t, "No matches for key query \"zzz*\" were found.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "MODE trie")
	assert.Equal(t, "Search mode set to TRIE.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "KEYS ap")
	assert.Equal(t, "p\nr\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "MODE regex")
	assert.Equal(t, "Search mode set to REGEX.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "KEYS (")
	assert.Contains(t, string(resp.Body), "Invalid pattern \"(\"")
}

func TestDispatchTTL(t *testing.T) {
	st := store.New(store.Options{})
	dispatchLine(t, st, nil, "SET i64 k 1")

	resp := dispatchLine(t, st, nil, "TTL k")
	assert.Equal(t, "Key \"k\" does not expire.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "TTL k 300")
	assert.Equal(t, "Set TTL for key \"k\" to 300.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "TTL k")
	assert.Equal(t, "300\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "DELTTL k")
	assert.Equal(t, "Cleared TTL for key \"k\".\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "TTL k")
	assert.Equal(t, "Key \"k\" does not expire.\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "TTL missing")
	assert.Equal(t, "Key \"missing\" does not exist.\n", string(resp.Body))
}

func TestDispatchAdd(t *testing.T) {
	st := store.New(store.Options{})
	dispatchLine(t, st, nil, "SET i64 a 40")
	dispatchLine(t, st, nil, "SET i64 b 2")

	resp := dispatchLine(t, st, nil, "ADD i64 a b")
	assert.Equal(t, "42\n", string(resp.Body))

	resp = dispatchLine(t, st, nil, "ADD String a b")
	assert.Equal(t, "Type \"String\" does not support ADD.\n", string(resp.Body))

	dispatchLine(t, st, nil, "SET i8 big 127")
	dispatchLine(t, st, nil, "SET i8 one 1")
	resp = dispatchLine(t, st, nil, "ADD i8 big one")
	assert.Equal(t, "Adding values of type \"i8\" overflowed.\n", string(resp.Body))
}

func TestDispatchSave(t *testing.T) {
	st := store.New(store.Options{})
	dispatchLine(t, st, nil, "SET i64 k 1")

	resp := dispatchLine(t, st, nil, "SAVE")
	assert.Equal(t, "Saving is not supported: snapshot persistence is not configured.\n", string(resp.Body))

	dir := t.TempDir()
	snap, err := persistence.NewSnapshotter(dir)
	require.NoError(t, err)
	resp = dispatchLine(t, st, snap, "SAVE")
	assert.Equal(t, "Saved 1 keys.\n", string(resp.Body))
	assert.FileExists(t, filepath.Join(dir, "smirk.snapshot"))
}

func TestDispatchQuit(t *testing.T) {
	st := store.New(store.Options{})
	resp := dispatchLine(t, st, nil, "QUIT")
	assert.Equal(t, "Bye.\n", string(resp.Body))
	assert.True(t, resp.Close)
}
