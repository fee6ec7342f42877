package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainInvocation separates journal ids from any other SHA-256 use.
// The version suffix leaves room for a future algorithm change.
const DomainInvocation = "limiter/invocation/v1"

// InvocationID computes the content-addressed id of a journal entry.
// The id is stable across replays given the same op, arguments, instant
// and sequence number.
func InvocationID(a Args, nowUnix, seq int64) (string, error) {
	raw, err := EncodeArgs(a)
	if err != nil {
		return "", fmt.Errorf("InvocationID: %w", err)
	}
	args, err := decodeGeneric(raw)
	if err != nil {
		return "", fmt.Errorf("InvocationID: %w", err)
	}

	canonical, err := MarshalCanonical(map[string]any{
		"op":   a.Op().String(),
		"args": args,
		"now":  nowUnix,
		"seq":  seq,
	})
	if err != nil {
		return "", fmt.Errorf("InvocationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps domain and data from running into each other.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// decodeGeneric parses JSON keeping numbers as json.Number so that large
// integers survive untouched.
func decodeGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalCanonical produces RFC 8785 style canonical JSON:
// object keys sorted by UTF-16 code units, no HTML escaping, strings NFC
// normalized, integers only. Null and floats are rejected.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case json.Number:
		if _, err := strconv.ParseInt(string(val), 10, 64); err != nil {
			if _, uerr := strconv.ParseUint(string(val), 10, 64); uerr != nil {
				return fmt.Errorf("non-integer number %s is forbidden in canonical JSON", val)
			}
		}
		buf.WriteString(string(val))
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareUTF16)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes s NFC-normalized, escaping only quote,
// backslash and control characters.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return nil
}

// compareUTF16 orders strings by UTF-16 code units, which differs from Go's
// byte-wise order for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
