package integration

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func startServer(t *testing.T, dataDir string, extraArgs ...string) (addr string, stop func()) {
	t.Helper()
	port := freePort(t)
	addr = fmt.Sprintf("127.0.0.1:%d", port)

	args := []string{"run", "./cmd/smirk-server", "--port", strconv.Itoa(port)}
	if dataDir != "" {
		args = append(args, "--data-dir", dataDir)
	}
	args = append(args, extraArgs...)

	cmd := exec.CommandContext(context.Background(), "go", args...)
	cmd.Dir = filepath.Clean("../..")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	waitForReady(t, addr, 5*time.Second)

	return addr, func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}
}

func waitForReady(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server not ready on %s", addr)
}

// send issues one command over a fresh connection and returns the reply
// lines. Most commands answer with a single line; KEYS may answer with one
// line per match.
func send(t *testing.T, addr, line string, wantLines int) []string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bufio.NewReader(conn)
	out := make([]string, 0, wantLines)
	for i := 0; i < wantLines; i++ {
		reply, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read reply to %q: %v", line, err)
		}
		out = append(out, strings.TrimSuffix(reply, "\n"))
	}
	return out
}

func sendOne(t *testing.T, addr, line string) string {
	t.Helper()
	return send(t, addr, line, 1)[0]
}

// trySend is the goroutine-safe variant: it returns errors instead of
// failing the test, since FailNow may only run on the test goroutine.
func trySend(addr, line string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", err
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(reply, "\n"), nil
}

func TestBasicSetGetDel(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	reply := sendOne(t, addr, "SET i64 answer 42")
	if reply != `Set key "answer" successfully. Stored-Type: i64, User-Type: i64` {
		t.Fatalf("unexpected SET reply: %q", reply)
	}
	if reply := sendOne(t, addr, "GET i64 answer"); reply != "42" {
		t.Fatalf("expected 42, got %q", reply)
	}
	if reply := sendOne(t, addr, "GET u64 answer"); reply != `Value stored in key "answer" is not of type "u64".` {
		t.Fatalf("unexpected mismatch reply: %q", reply)
	}
	if reply := sendOne(t, addr, "EXISTS answer"); reply != "true" {
		t.Fatalf("expected true, got %q", reply)
	}
	if reply := sendOne(t, addr, "TYPE answer"); reply != "Stored-Type: i64, User-Type: i64" {
		t.Fatalf("unexpected TYPE reply: %q", reply)
	}
	if reply := sendOne(t, addr, "DEL answer"); reply != "1" {
		t.Fatalf("expected 1, got %q", reply)
	}
	if reply := sendOne(t, addr, "DEL answer"); reply != "0" {
		t.Fatalf("expected 0, got %q", reply)
	}
	if reply := sendOne(t, addr, "GET i64 answer"); reply != `Key "answer" not found.` {
		t.Fatalf("unexpected miss reply: %q", reply)
	}
}

func TestValueWithSpaces(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	sendOne(t, addr, "SET String greeting hello there world")
	if reply := sendOne(t, addr, "GET String greeting"); reply != "hello there world" {
		t.Fatalf("expected re-joined value, got %q", reply)
	}
}

func TestAddCommand(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	sendOne(t, addr, "SET i64 a 40")
	sendOne(t, addr, "SET i64 b 2")
	if reply := sendOne(t, addr, "ADD i64 a b"); reply != "42" {
		t.Fatalf("expected 42, got %q", reply)
	}

	sendOne(t, addr, "SET i8 big 127")
	sendOne(t, addr, "SET i8 one 1")
	if reply := sendOne(t, addr, "ADD i8 big one"); reply != `Adding values of type "i8" overflowed.` {
		t.Fatalf("expected overflow, got %q", reply)
	}
}

func TestInvalidCommandGetsReply(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	if reply := sendOne(t, addr, "FROB x"); reply != "Invalid command: unknown command." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	// The connection is still usable afterwards.
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	for _, line := range []string{"BOGUS", "SET i64 k 1", "GET i64 k"} {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := r.ReadString('\n'); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
}

func TestQuit(t *testing.T) {
	addr, stop := startServer(t, "")
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("QUIT\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bufio.NewReader(conn)
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply != "Bye.\n" {
		t.Fatalf("expected Bye., got %q", reply)
	}
	if _, err := r.ReadString('\n'); err == nil {
		t.Fatal("expected connection closed after QUIT")
	}
}
