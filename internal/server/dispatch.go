package server

import (
	"fmt"
	"strings"

	"github.com/smirkdb/smirk/internal/persistence"
	"github.com/smirkdb/smirk/internal/protocol"
	"github.com/smirkdb/smirk/internal/stats"
	"github.com/smirkdb/smirk/internal/store"
)

// Response is one reply to a decoded command. Body is written verbatim;
// Close ends the connection after the write.
type Response struct {
	Body  []byte
	Close bool
}

func text(format string, args ...any) Response {
	return Response{Body: []byte(fmt.Sprintf(format, args...) + "\n")}
}

func errText(err error) Response {
	return Response{Body: []byte(err.Error() + "\n")}
}

func (s *Server) dispatch(cmd protocol.Command) Response {
	return Dispatch(s.st, s.snap, s.stats, cmd)
}

// Dispatch resolves a command's declared type tag to the matching store
// operation and formats the result into a response. Unrecognized tags route
// SET to the binary path and GET to bytes retrieval; ADD only accepts the
// numeric tags.
func Dispatch(st *store.Store, snap *persistence.Snapshotter, stats *stats.Stats, cmd protocol.Command) Response {
	switch cmd.Op {
	case protocol.OpSet:
		kind, ok := store.KindFromTag(cmd.TypeTag)
		if !ok || kind == store.KindBytes {
			ack := st.BinarySet(cmd.Key, []byte(cmd.Value), cmd.TypeTag)
			stats.RecordSet()
			return ackText(ack)
		}
		ack, err := st.Set(cmd.Key, kind, cmd.TypeTag, cmd.Value)
		if err != nil {
			stats.RecordError()
			return errText(err)
		}
		stats.RecordSet()
		return ackText(ack)

	case protocol.OpGet:
		kind, ok := store.KindFromTag(cmd.TypeTag)
		if !ok {
			kind = store.KindBytes
		}
		val, err := st.Get(cmd.Key, kind)
		stats.RecordGet(err == nil)
		if err != nil {
			return errText(err)
		}
		if kind == store.KindBytes {
			// Raw payload verbatim; it may itself contain newlines.
			body := append([]byte(nil), val.Bytes()...)
			return Response{Body: append(body, '\n')}
		}
		return text("%s", val.Format())

	case protocol.OpDel:
		removed := st.Del(cmd.Keys...)
		stats.RecordDel(int64(removed))
		return text("%d", removed)

	case protocol.OpKeys:
		stats.RecordSearch()
		matches, err := st.Keys(cmd.Pattern)
		if err != nil {
			stats.RecordError()
			return errText(err)
		}
		if len(matches) == 0 {
			return text("No matches for key query %q were found.", cmd.Pattern)
		}
		return text("%s", strings.Join(matches, "\n"))

	case protocol.OpMode:
		mode, _ := store.ParseSearchMode(cmd.Mode)
		st.SetSearchMode(mode)
		return text("Search mode set to %s.", mode)

	case protocol.OpTTLGet:
		remaining, expires, err := st.TTL(cmd.Key)
		if err != nil {
			return text("Key %q does not exist.", cmd.Key)
		}
		if !expires {
			return text("Key %q does not expire.", cmd.Key)
		}
		return text("%d", remaining)

	case protocol.OpTTLSet:
		if !st.SetTTL(cmd.Key, cmd.TTL) {
			return text("Key %q does not exist.", cmd.Key)
		}
		return text("Set TTL for key %q to %d.", cmd.Key, cmd.TTL)

	case protocol.OpDelTTL:
		if !st.ClearTTL(cmd.Key) {
			return text("Key %q does not exist.", cmd.Key)
		}
		return text("Cleared TTL for key %q.", cmd.Key)

	case protocol.OpExists:
		return text("%t", st.Exists(cmd.Key))

	case protocol.OpType:
		stored, declared, err := st.Type(cmd.Key)
		if err != nil {
			return errText(err)
		}
		return text("Stored-Type: %s, User-Type: %s", stored, declared)

	case protocol.OpAdd:
		kind, ok := store.KindFromTag(cmd.TypeTag)
		if !ok || !kind.Numeric() {
			stats.RecordError()
			return text("Type %q does not support ADD.", cmd.TypeTag)
		}
		total, err := st.Accumulate(kind, cmd.Keys)
		if err != nil {
			stats.RecordError()
			return errText(err)
		}
		stats.RecordAdd()
		return text("%s", total.Format())

	case protocol.OpSave:
		entries := st.Dump()
		if err := snap.Save(entries); err != nil {
			return text("Saving is not supported: %v.", err)
		}
		return text("Saved %d keys.", len(entries))

	case protocol.OpQuit:
		return Response{Body: []byte("Bye.\n"), Close: true}

	default:
		stats.RecordError()
		return text("Unknown command.")
	}
}

func ackText(ack store.Ack) Response {
	return text("Set key %q successfully. Stored-Type: %s, User-Type: %s", ack.Key, ack.Stored, ack.Declared)
}
