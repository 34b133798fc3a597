// Package codec provides pluggable (de)serialization for the typed view.
// Delegates store raw bytes; a Codec maps the caller's value type onto them.
package codec

// Codec encodes/decodes values V to []byte for storage.
//
// Encode must never produce an empty payload for a present value: the
// transactional layer reserves empty payloads for miss-unlock markers and
// reads them back as absent.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
