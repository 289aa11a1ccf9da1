// Package hashing provides the content hash used for chain linkage, merkle
// leaves and the proof of work puzzle.
package hashing

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Projector is implemented by records that can be hashed. Fields returns the
// record as a map of its wire names to values. The map is serialized with
// the keys in sorted order so construction order never changes the hash.
type Projector interface {
	Fields() map[string]any
}

// =============================================================================

// Hash returns a unique string for the value. The value is serialized with
// Canonical and the sha256 digest is returned as lowercase hex.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the lowercase hex sha256 digest of the raw bytes.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:])
}

// Canonical serializes the value into its canonical form. Objects have their
// keys sorted, items are separated by ", " and keys by ": ", strings are
// escaped to ASCII and floats use their shortest round trip representation.
// This is the same byte layout a python json.dumps(v, sort_keys=True)
// produces, so hashes are stable across implementations.
func Canonical(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, value); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Number returns the canonical form of a number literal. Integers keep
// every digit and drop a negative zero sign, anything with a fraction or an
// exponent is rendered like a float. An empty literal is zero.
func Number(n json.Number) (string, error) {
	v := string(n)
	if v == "" {
		return "0", nil
	}
	if !json.Valid([]byte(v)) {
		return "", fmt.Errorf("invalid number literal %q", v)
	}

	if !strings.ContainsAny(v, ".eE") {
		i, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return "", fmt.Errorf("invalid number literal %q", v)
		}
		return i.String(), nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return "", fmt.Errorf("number literal %q: %w", v, err)
	}

	return formatFloat(f)
}

// =============================================================================

func encode(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")

	case Projector:
		return encodeObject(buf, v.Fields())

	case map[string]any:
		return encodeObject(buf, v)

	case string:
		encodeString(buf, v)

	case *string:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		encodeString(buf, *v)

	case json.Number:
		s, err := Number(v)
		if err != nil {
			return err
		}
		buf.WriteString(s)

	case bool:
		buf.WriteString(strconv.FormatBool(v))

	case float64:
		s, err := formatFloat(v)
		if err != nil {
			return err
		}
		buf.WriteString(s)

	case float32:
		s, err := formatFloat(float64(v))
		if err != nil {
			return err
		}
		buf.WriteString(s)

	case int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(v, 10))

	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Errorf("unsupported type %T", value)
		}

		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encode(buf, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}

	return nil
}

func encodeObject(buf *bytes.Buffer, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		encodeString(buf, k)
		buf.WriteString(": ")
		if err := encode(buf, fields[k]); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')

	return nil
}

// encodeString writes the string as a quoted ASCII only literal. Anything
// outside printable ASCII is written as a \u escape, using
// surrogate pairs above the basic multilingual plane.
func encodeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r >= 0x20 && r < 0x7f {
				buf.WriteRune(r)
				continue
			}

			units := []rune{r}
			if r > 0xffff {
				r1, r2 := utf16.EncodeRune(r)
				units = []rune{r1, r2}
			}
			for _, u := range units {
				buf.WriteString(`\u`)
				buf.WriteByte(hex[(u>>12)&0xf])
				buf.WriteByte(hex[(u>>8)&0xf])
				buf.WriteByte(hex[(u>>4)&0xf])
				buf.WriteByte(hex[u&0xf])
			}
		}
	}
	buf.WriteByte('"')
}

// formatFloat renders the float with the fewest digits that round trip.
// Values between 1e-4 and 1e16 use positional notation and always carry a
// fractional part, everything else uses an exponent.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("unsupported float value %v", f)
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}

	return s, nil
}
