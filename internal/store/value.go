package store

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies one of the supported storage kinds. The set is closed:
// every command that names a type resolves to exactly one Kind, and an
// unrecognized type tag falls back to KindBytes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindIsize
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindUsize
	KindF32
	KindF64
	KindBool
	KindChar
	KindString
	KindBigInt
	KindBytes
)

var kindTags = map[Kind]string{
	KindI8:     "i8",
	KindI16:    "i16",
	KindI32:    "i32",
	KindI64:    "i64",
	KindI128:   "i128",
	KindIsize:  "isize",
	KindU8:     "u8",
	KindU16:    "u16",
	KindU32:    "u32",
	KindU64:    "u64",
	KindU128:   "u128",
	KindUsize:  "usize",
	KindF32:    "f32",
	KindF64:    "f64",
	KindBool:   "bool",
	KindChar:   "char",
	KindString: "String",
	KindBigInt: "BigInt",
	KindBytes:  "bytes",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// KindFromTag resolves a client-declared type tag. ok is false for tags
// outside the scalar set; callers fall back to the bytes kind.
func KindFromTag(tag string) (Kind, bool) {
	k, ok := tagKinds[tag]
	return k, ok
}

// Tag returns the canonical type tag for the kind.
func (k Kind) Tag() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "invalid"
}

// Numeric reports whether the kind participates in ADD.
func (k Kind) Numeric() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindI128, KindIsize,
		KindU8, KindU16, KindU32, KindU64, KindU128, KindUsize,
		KindF32, KindF64, KindBigInt:
		return true
	}
	return false
}

func (k Kind) signed() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindIsize:
		return true
	}
	return false
}

func (k Kind) unsigned() bool {
	switch k {
	case KindU8, KindU16, KindU32, KindU64, KindUsize:
		return true
	}
	return false
}

func (k Kind) float() bool {
	return k == KindF32 || k == KindF64
}

// big-backed kinds parse into a big.Int, with i128/u128 range checked.
func (k Kind) bigInt() bool {
	return k == KindI128 || k == KindU128 || k == KindBigInt
}

func intBounds(k Kind) (int64, int64) {
	switch k {
	case KindI8:
		return math.MinInt8, math.MaxInt8
	case KindI16:
		return math.MinInt16, math.MaxInt16
	case KindI32:
		return math.MinInt32, math.MaxInt32
	case KindIsize:
		return math.MinInt, math.MaxInt
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func uintMax(k Kind) uint64 {
	switch k {
	case KindU8:
		return math.MaxUint8
	case KindU16:
		return math.MaxUint16
	case KindU32:
		return math.MaxUint32
	case KindUsize:
		return math.MaxUint
	default:
		return math.MaxUint64
	}
}

var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

func inKindRange(k Kind, n *big.Int) bool {
	switch k {
	case KindI128:
		return n.Cmp(minI128) >= 0 && n.Cmp(maxI128) <= 0
	case KindU128:
		return n.Sign() >= 0 && n.Cmp(maxU128) <= 0
	default:
		return true
	}
}

// Value is the closed tagged union of every supported kind. The kind field
// selects which storage field is live; exact-kind comparison is how GET
// recovers the stored type.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	b    bool
	r    rune
	s    string
	n    *big.Int
	raw  []byte
}

// Kind returns the stored kind.
func (v Value) Kind() Kind { return v.kind }

// BytesValue wraps raw bytes as the opaque fallback kind.
func BytesValue(data []byte) Value {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Value{kind: KindBytes, raw: buf}
}

// ParseValue runs the canonical text parser for the kind. KindBytes never
// reaches here; binary writes go through BytesValue.
func ParseValue(k Kind, text string) (Value, error) {
	switch {
	case k.signed():
		bits := 64
		switch k {
		case KindI8:
			bits = 8
		case KindI16:
			bits = 16
		case KindI32:
			bits = 32
		case KindIsize:
			bits = strconv.IntSize
		}
		n, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, i: n}, nil
	case k.unsigned():
		bits := 64
		switch k {
		case KindU8:
			bits = 8
		case KindU16:
			bits = 16
		case KindU32:
			bits = 32
		case KindUsize:
			bits = strconv.IntSize
		}
		n, err := strconv.ParseUint(text, 10, bits)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, u: n}, nil
	case k.bigInt():
		n, ok := new(big.Int).SetString(strings.TrimSpace(text), 10)
		if !ok || !inKindRange(k, n) {
			return Value{}, fmt.Errorf("invalid %s literal", k.Tag())
		}
		return Value{kind: k, n: n}, nil
	case k == KindF32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, f: f}, nil
	case k == KindF64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, f: f}, nil
	case k == KindBool:
		// Only the two canonical literals; no 1/0/t/f shorthands.
		switch text {
		case "true":
			return Value{kind: k, b: true}, nil
		case "false":
			return Value{kind: k, b: false}, nil
		}
		return Value{}, fmt.Errorf("invalid bool literal")
	case k == KindChar:
		if utf8.RuneCountInString(text) != 1 {
			return Value{}, fmt.Errorf("char requires exactly one character")
		}
		r, _ := utf8.DecodeRuneInString(text)
		return Value{kind: k, r: r}, nil
	case k == KindString:
		return Value{kind: k, s: text}, nil
	}
	return Value{}, fmt.Errorf("unsupported kind %q", k.Tag())
}

// Format renders the value with the kind's canonical formatter. For the
// bytes kind this is only used for diagnostics; GET writes Bytes verbatim.
func (v Value) Format() string {
	switch {
	case v.kind.signed():
		return strconv.FormatInt(v.i, 10)
	case v.kind.unsigned():
		return strconv.FormatUint(v.u, 10)
	case v.kind.bigInt():
		return v.n.String()
	case v.kind == KindF32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case v.kind == KindF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case v.kind == KindBool:
		return strconv.FormatBool(v.b)
	case v.kind == KindChar:
		return string(v.r)
	case v.kind == KindString:
		return v.s
	case v.kind == KindBytes:
		return string(v.raw)
	}
	return ""
}

// Bytes returns the raw payload of a bytes-kind value.
func (v Value) Bytes() []byte { return v.raw }

// zeroValue is the additive identity for a numeric kind.
func zeroValue(k Kind) Value {
	v := Value{kind: k}
	if k.bigInt() {
		v.n = new(big.Int)
	}
	return v
}

// addChecked adds b into a. ok is false on overflow for the checked integer
// kinds; floats use ordinary IEEE addition and BigInt never overflows.
func addChecked(a, b Value) (Value, bool) {
	k := a.kind
	switch {
	case k.signed():
		min, max := intBounds(k)
		sum := a.i + b.i
		if (b.i > 0 && sum < a.i) || (b.i < 0 && sum > a.i) || sum < min || sum > max {
			return Value{}, false
		}
		return Value{kind: k, i: sum}, true
	case k.unsigned():
		sum := a.u + b.u
		if sum < a.u || sum > uintMax(k) {
			return Value{}, false
		}
		return Value{kind: k, u: sum}, true
	case k.bigInt():
		sum := new(big.Int).Add(a.n, b.n)
		if !inKindRange(k, sum) {
			return Value{}, false
		}
		return Value{kind: k, n: sum}, true
	case k == KindF32:
		return Value{kind: k, f: float64(float32(a.f) + float32(b.f))}, true
	case k == KindF64:
		return Value{kind: k, f: a.f + b.f}, true
	}
	return Value{}, false
}
