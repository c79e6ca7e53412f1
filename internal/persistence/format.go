package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"time"

	"github.com/smirkdb/smirk/internal/store"
)

var (
	magic      = [4]byte{'S', 'M', 'K', '1'}
	ErrCorrupt = errors.New("snapshot record corrupt")
)

// Encode serializes one store entry: a fixed header, the variable fields,
// and a crc32 trailer over everything before it.
func Encode(ent store.Entry) ([]byte, error) {
	stored := []byte(ent.Stored)
	declared := []byte(ent.Declared)
	key := []byte(ent.Key)

	buf := bytes.NewBuffer(nil)
	if _, err := buf.Write(magic[:]); err != nil {
		return nil, err
	}
	for _, n := range []uint32{uint32(len(stored)), uint32(len(declared)), uint32(len(key)), uint32(len(ent.Data))} {
		if err := binary.Write(buf, binary.LittleEndian, n); err != nil {
			return nil, err
		}
	}
	hasTTL := byte(0)
	if ent.HasTTL {
		hasTTL = 1
	}
	if err := buf.WriteByte(hasTTL); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, ent.TTL); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, ent.TTLStart.UnixMilli()); err != nil {
		return nil, err
	}
	for _, field := range [][]byte{stored, declared, key, ent.Data} {
		if _, err := buf.Write(field); err != nil {
			return nil, err
		}
	}
	crc := crc32.ChecksumIEEE(buf.Bytes())
	if err := binary.Write(buf, binary.LittleEndian, crc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrom reads one entry, verifying the magic and the crc trailer.
func DecodeFrom(r io.Reader) (store.Entry, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return store.Entry{}, err
	}
	if header != magic {
		return store.Entry{}, ErrCorrupt
	}
	var lens [4]uint32
	for i := range lens {
		if err := binary.Read(r, binary.LittleEndian, &lens[i]); err != nil {
			return store.Entry{}, err
		}
	}
	flag := make([]byte, 1)
	if _, err := io.ReadFull(r, flag); err != nil {
		return store.Entry{}, err
	}
	var ttl uint64
	if err := binary.Read(r, binary.LittleEndian, &ttl); err != nil {
		return store.Entry{}, err
	}
	var startMs int64
	if err := binary.Read(r, binary.LittleEndian, &startMs); err != nil {
		return store.Entry{}, err
	}
	fields := make([][]byte, 4)
	for i, n := range lens {
		fields[i] = make([]byte, n)
		if _, err := io.ReadFull(r, fields[i]); err != nil {
			return store.Entry{}, err
		}
	}
	var crc uint32
	if err := binary.Read(r, binary.LittleEndian, &crc); err != nil {
		return store.Entry{}, err
	}

	body := bytes.NewBuffer(nil)
	body.Write(header[:])
	for _, n := range lens {
		binary.Write(body, binary.LittleEndian, n)
	}
	body.Write(flag)
	binary.Write(body, binary.LittleEndian, ttl)
	binary.Write(body, binary.LittleEndian, startMs)
	for _, field := range fields {
		body.Write(field)
	}
	if crc32.ChecksumIEEE(body.Bytes()) != crc {
		return store.Entry{}, ErrCorrupt
	}

	return store.Entry{
		Stored:   string(fields[0]),
		Declared: string(fields[1]),
		Key:      string(fields[2]),
		Data:     fields[3],
		TTL:      ttl,
		HasTTL:   flag[0] == 1,
		TTLStart: time.UnixMilli(startMs),
	}, nil
}
