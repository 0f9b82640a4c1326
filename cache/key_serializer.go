package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeySeparator delimits the segments of a cache key.
const KeySeparator = "::"

// KeySerializer builds a stable cache key from a method name and its
// arguments. Keys for the same table must share the table segment as a
// prefix so table-wide invalidation can use DeleteByPrefix.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// jsonKeySerializer renders each argument as canonical JSON. Maps are
// re-encoded with sorted keys so logically equal filter maps produce the
// same key regardless of insertion order.
type jsonKeySerializer struct{}

// NewKeySerializer returns the default serializer.
func NewKeySerializer() KeySerializer {
	return jsonKeySerializer{}
}

func (jsonKeySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, serializeArg(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func serializeArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	raw, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%+v", arg)
	}
	return canonicalize(raw)
}

// canonicalize re-encodes JSON objects with sorted keys. encoding/json
// sorts map keys at every level, so one decode/encode round trip is enough;
// values that do not decode into an object pass through unchanged.
func canonicalize(raw []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return string(raw)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
