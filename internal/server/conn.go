package server

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/smirkdb/smirk/internal/protocol"
)

func (s *Server) handleConn(c net.Conn) {
	defer c.Close()
	reader := bufio.NewReader(c)
	writer := bufio.NewWriter(c)

	log := s.log.With("conn", uuid.NewString(), "peer", c.RemoteAddr().String())
	log.Info("client connected")

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("read failed", "error", err)
			}
			log.Info("client disconnected")
			return
		}

		cmd, err := protocol.Parse(line)
		if err != nil {
			// A bad line is answered, not dropped, and never ends the
			// connection.
			s.stats.RecordError()
			log.Warn("bad command", "error", err)
			if _, werr := writer.WriteString("Invalid command: " + err.Error() + ".\n"); werr != nil {
				return
			}
			if werr := writer.Flush(); werr != nil {
				return
			}
			continue
		}

		resp := s.dispatch(cmd)
		if _, err := writer.Write(resp.Body); err != nil {
			return
		}
		if err := writer.Flush(); err != nil {
			return
		}
		if resp.Close {
			log.Info("client quit")
			return
		}
	}
}
