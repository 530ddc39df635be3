// Package serde holds small generic serializer/deserializer contracts used
// to turn entities into the opaque bytes kept by the snapshot store.
package serde

// Serializer converts a Src value into a Dst representation.
type Serializer[Src any, Dst any] interface {
	Serialize(src Src) (Dst, error)
}

// SerializerFunc is a functional Serializer.
type SerializerFunc[Src any, Dst any] func(src Src) (Dst, error)

// Serialize implements Serializer.
func (fn SerializerFunc[Src, Dst]) Serialize(src Src) (Dst, error) { return fn(src) }

// Deserializer rebuilds a Src value from its Dst representation.
type Deserializer[Src any, Dst any] interface {
	Deserialize(dst Dst) (Src, error)
}

// DeserializerFunc is a functional Deserializer.
type DeserializerFunc[Src any, Dst any] func(dst Dst) (Src, error)

// Deserialize implements Deserializer.
func (fn DeserializerFunc[Src, Dst]) Deserialize(dst Dst) (Src, error) { return fn(dst) }

// Serde serializes and deserializes between Src and Dst.
type Serde[Src any, Dst any] interface {
	Serializer[Src, Dst]
	Deserializer[Src, Dst]
}

// Fused joins a Serializer and a Deserializer into a Serde.
type Fused[Src any, Dst any] struct {
	Serializer[Src, Dst]
	Deserializer[Src, Dst]
}

// Fuse combines serializer and deserializer into a Fused serde.
func Fuse[Src, Dst any](serializer Serializer[Src, Dst], deserializer Deserializer[Src, Dst]) Fused[Src, Dst] {
	return Fused[Src, Dst]{
		Serializer:   serializer,
		Deserializer: deserializer,
	}
}
