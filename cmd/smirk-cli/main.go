package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:53173", "server address")
	pflag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if pflag.NArg() > 0 {
		runOnce(conn, strings.Join(pflag.Args(), " "))
		return
	}

	// The protocol is unframed text, so interactive mode just mirrors the
	// socket to stdout while forwarding stdin lines.
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(os.Stdout, conn)
		close(done)
	}()

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			return
		}
		if strings.EqualFold(strings.Fields(line)[0], "QUIT") {
			<-done
			return
		}
	}
}

func runOnce(conn net.Conn, line string) {
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _ = io.Copy(os.Stdout, conn)
}
