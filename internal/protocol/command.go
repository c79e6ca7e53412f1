package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// Decode errors, resolved before a command ever reaches the store.
var (
	ErrNoInput          = errors.New("no input")
	ErrArgumentMismatch = errors.New("wrong number of arguments")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNoValidMode      = errors.New("no valid search mode specified")
	ErrInvalidTTL       = errors.New("invalid ttl specified")
)

type Op int

const (
	OpSet Op = iota
	OpGet
	OpDel
	OpKeys
	OpMode
	OpTTLGet
	OpTTLSet
	OpDelTTL
	OpExists
	OpType
	OpAdd
	OpSave
	OpQuit
)

// Command is one decoded request line.
type Command struct {
	Op      Op
	TypeTag string   // SET/GET/ADD: the client-declared type
	Key     string
	Keys    []string // DEL/ADD
	Value   string   // SET: remainder of line, re-joined on single spaces
	Pattern string   // KEYS
	Mode    string   // MODE: GLOB, REGEX or TRIE (upper-cased)
	TTL     uint64   // TTL set form
}

// Parse tokenizes one line into a Command. Whitespace separates tokens; a
// SET value is the re-joined remainder and may contain spaces.
func Parse(line string) (Command, error) {
	tokens := strings.Fields(strings.TrimSpace(line))
	if len(tokens) == 0 {
		return Command{}, ErrNoInput
	}

	switch strings.ToUpper(tokens[0]) {
	case "SET":
		if len(tokens) < 4 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{
			Op:      OpSet,
			TypeTag: tokens[1],
			Key:     tokens[2],
			Value:   strings.Join(tokens[3:], " "),
		}, nil
	case "GET":
		if len(tokens) != 3 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpGet, TypeTag: tokens[1], Key: tokens[2]}, nil
	case "DEL":
		if len(tokens) < 2 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpDel, Keys: tokens[1:]}, nil
	case "KEYS":
		if len(tokens) != 2 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpKeys, Pattern: tokens[1]}, nil
	case "MODE":
		if len(tokens) != 2 {
			return Command{}, ErrArgumentMismatch
		}
		mode := strings.ToUpper(tokens[1])
		switch mode {
		case "GLOB", "REGEX", "TRIE":
			return Command{Op: OpMode, Mode: mode}, nil
		}
		return Command{}, ErrNoValidMode
	case "TTL":
		switch len(tokens) {
		case 2:
			return Command{Op: OpTTLGet, Key: tokens[1]}, nil
		case 3:
			ttl, err := strconv.ParseUint(tokens[2], 10, 64)
			if err != nil {
				return Command{}, ErrInvalidTTL
			}
			return Command{Op: OpTTLSet, Key: tokens[1], TTL: ttl}, nil
		default:
			return Command{}, ErrArgumentMismatch
		}
	case "DELTTL":
		if len(tokens) != 2 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpDelTTL, Key: tokens[1]}, nil
	case "EXISTS":
		if len(tokens) != 2 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpExists, Key: tokens[1]}, nil
	case "TYPE":
		if len(tokens) != 2 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpType, Key: tokens[1]}, nil
	case "ADD":
		if len(tokens) < 3 {
			return Command{}, ErrArgumentMismatch
		}
		return Command{Op: OpAdd, TypeTag: tokens[1], Keys: tokens[2:]}, nil
	case "SAVE":
		return Command{Op: OpSave}, nil
	case "QUIT":
		return Command{Op: OpQuit}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}
