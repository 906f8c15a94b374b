package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/multiformats/go-varint"
	"golang.org/x/crypto/blake2b"
)

const signRequestDomain = "maskwallet/sign/request/v1"

// Canonical value tags. Every value is type-tagged and length-prefixed so
// the byte form is injective; object keys sort bytewise. Two JSON texts
// that decode to the same value hash identically regardless of key order
// or whitespace.
const (
	tagNull byte = iota
	tagFalse
	tagTrue
	tagNumber
	tagString
	tagArray
	tagObject
)

// CanonicalRequestDigest hashes a decoded JSON request value into the
// domain-separated digest that gets signed.
func CanonicalRequestDigest(request any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, request); err != nil {
		return nil, err
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte(signRequestDomain))
	h.Write(buf.Bytes())
	return h.Sum(nil), nil
}

func writeCanonical(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteByte(tagNull)
	case bool:
		if v {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case float64:
		writeCanonicalNumber(buf, v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("%w: unrepresentable number %q", ErrInvalidInput, v.String())
		}
		writeCanonicalNumber(buf, f)
	case string:
		buf.WriteByte(tagString)
		writeLengthPrefixed(buf, []byte(v))
	case []any:
		buf.WriteByte(tagArray)
		buf.Write(varint.ToUvarint(uint64(len(v))))
		for _, element := range v {
			if err := writeCanonical(buf, element); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte(tagObject)
		buf.Write(varint.ToUvarint(uint64(len(keys))))
		for _, key := range keys {
			writeLengthPrefixed(buf, []byte(key))
			if err := writeCanonical(buf, v[key]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported request value type %T", ErrInvalidInput, value)
	}
	return nil
}

// writeCanonicalNumber renders a number through its shortest float64
// round-trip form, so 1, 1.0 and 1e0 all canonicalize identically.
func writeCanonicalNumber(buf *bytes.Buffer, f float64) {
	buf.WriteByte(tagNumber)
	writeLengthPrefixed(buf, []byte(strconv.FormatFloat(f, 'g', -1, 64)))
}

func writeLengthPrefixed(buf *bytes.Buffer, b []byte) {
	buf.Write(varint.ToUvarint(uint64(len(b))))
	buf.Write(b)
}
