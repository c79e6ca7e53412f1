package integration

import (
	"testing"
)

func TestSaveAndRestore(t *testing.T) {
	dataDir := t.TempDir()

	addr, stop := startServer(t, dataDir)
	sendOne(t, addr, "SET i64 count 42")
	sendOne(t, addr, "SET String name smirk")
	sendOne(t, addr, "SET f64 ratio 2.5")
	if reply := sendOne(t, addr, "SAVE"); reply != "Saved 3 keys." {
		stop()
		t.Fatalf("unexpected SAVE reply: %q", reply)
	}
	stop()

	addr, stop = startServer(t, dataDir)
	defer stop()

	if reply := sendOne(t, addr, "GET i64 count"); reply != "42" {
		t.Fatalf("count not restored: %q", reply)
	}
	if reply := sendOne(t, addr, "GET String name"); reply != "smirk" {
		t.Fatalf("name not restored: %q", reply)
	}
	if reply := sendOne(t, addr, "GET f64 ratio"); reply != "2.5" {
		t.Fatalf("ratio not restored: %q", reply)
	}
	if reply := sendOne(t, addr, "TYPE count"); reply != "Stored-Type: i64, User-Type: i64" {
		t.Fatalf("type tag not restored: %q", reply)
	}
}

func TestSaveWithoutDataDir(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	sendOne(t, addr, "SET i64 k 1")
	if reply := sendOne(t, addr, "SAVE"); reply != "Saving is not supported: snapshot persistence is not configured." {
		t.Fatalf("unexpected SAVE reply: %q", reply)
	}
}

func TestRestoredKeysSearchable(t *testing.T) {
	dataDir := t.TempDir()

	addr, stop := startServer(t, dataDir)
	sendOne(t, addr, "SET i64 cat 1")
	sendOne(t, addr, "SET i64 car 2")
	sendOne(t, addr, "SAVE")
	stop()

	addr, stop = startServer(t, dataDir)
	defer stop()

	// The prefix index is rebuilt from the snapshot.
	sendOne(t, addr, "MODE TRIE")
	matches := send(t, addr, "KEYS ca", 2)
	if matches[0] != "r" || matches[1] != "t" {
		t.Fatalf("unexpected continuations after restore: %v", matches)
	}
}
