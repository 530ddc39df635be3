package serde

import (
	"encoding/json"
	"fmt"
)

// NewJSONSerializer returns a serializer encoding T as JSON bytes.
func NewJSONSerializer[T any]() SerializerFunc[T, []byte] {
	return func(t T) ([]byte, error) {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("serde.JSON: failed to serialize data, %w", err)
		}

		return data, nil
	}
}

// NewJSONDeserializer returns a deserializer decoding JSON bytes into T.
//
// factory creates the zero instance to decode into, which matters when T
// is a pointer type.
func NewJSONDeserializer[T any](factory func() T) DeserializerFunc[T, []byte] {
	return func(data []byte) (T, error) {
		var zeroValue T

		model := factory()
		if err := json.Unmarshal(data, &model); err != nil {
			return zeroValue, fmt.Errorf("serde.JSON: failed to deserialize data, %w", err)
		}

		return model, nil
	}
}

// NewJSON returns a Serde mapping T to and from JSON bytes.
func NewJSON[T any](factory func() T) Fused[T, []byte] {
	return Fuse[T, []byte](
		NewJSONSerializer[T](),
		NewJSONDeserializer(factory),
	)
}
