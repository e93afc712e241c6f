package nsmap

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// TypeTag identifies an exported namespace map document.
const TypeTag = "namespace-map"

// ErrNotNamespaceMap means a document does not have the exported
// namespace map shape.
var ErrNotNamespaceMap = errors.New("not a namespace map")

type document struct {
	Type       string      `json:"type"`
	Namespaces [][2]string `json:"namespaces"`
}

// MarshalJSON encodes m as
//
//	{"type": "namespace-map", "namespaces": [[alias, long], ...]}
//
// in iteration order.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Type: TypeTag, Namespaces: m.Pairs()})
}

// UnmarshalJSON decodes a document written by MarshalJSON into m.
func (m *Map) UnmarshalJSON(data []byte) error {
	n, err := Decode(data)
	if err != nil {
		return err
	}
	*m = *n
	return nil
}

// FromJSON decodes an exported document, returning nil if data is not
// JSON of the expected shape.
func FromJSON(data []byte) *Map {
	m, err := Decode(data)
	if err != nil {
		return nil
	}
	return m
}

// Decode is FromJSON that reports what was wrong with the document.
// Pairs with an invalid alias are dropped, as by FromMap.
func Decode(data []byte) (*Map, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotNamespaceMap, err)
	}
	return FromValue(v)
}

// FromValue builds a map from a decoded document: an object with the
// type tag and a namespaces array of two-string arrays, as produced by
// encoding/json or structpb.
func FromValue(v any) (*Map, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is %T, not an object", ErrNotNamespaceMap, v)
	}
	if tag, _ := doc["type"].(string); tag != TypeTag {
		return nil, fmt.Errorf("%w: type is %v", ErrNotNamespaceMap, doc["type"])
	}
	list, ok := doc["namespaces"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: namespaces is %T, not an array", ErrNotNamespaceMap, doc["namespaces"])
	}
	pairs := make([][2]string, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%w: namespaces[%d] is not a pair", ErrNotNamespaceMap, i)
		}
		short, ok1 := pair[0].(string)
		long, ok2 := pair[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: namespaces[%d] is not a pair of strings", ErrNotNamespaceMap, i)
		}
		pairs = append(pairs, [2]string{short, long})
	}
	return FromPairs(pairs), nil
}

// MarshalProto encodes the same document shape as MarshalJSON as a
// protobuf google.protobuf.Struct. Equal maps encode to equal bytes.
func MarshalProto(m *Map) ([]byte, error) {
	namespaces := make([]any, 0, m.Len())
	for short, long := range m.All() {
		namespaces = append(namespaces, []any{short, long})
	}
	s, err := structpb.NewStruct(map[string]any{
		"type":       TypeTag,
		"namespaces": namespaces,
	})
	if err != nil {
		return nil, fmt.Errorf("struct: %w", err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

// UnmarshalProto decodes bytes written by MarshalProto.
func UnmarshalProto(b []byte) (*Map, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotNamespaceMap, err)
	}
	return FromValue(s.AsMap())
}
