// Package encoding converts embedding vectors to and from the compact
// binary form stored in the SQLite archive: a little-endian int32 length
// followed by little-endian float32 values.
package encoding

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrInvalidVector is returned for nil vectors or malformed blobs.
var ErrInvalidVector = errors.New("encoding: invalid vector")

// EncodeVector serializes a float32 vector. An empty (but non-nil) vector
// encodes to just its zero length.
func EncodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, ErrInvalidVector
	}
	buf := make([]byte, 4+4*len(vector))
	binary.LittleEndian.PutUint32(buf, uint32(len(vector)))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeVector deserializes a blob produced by EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+4*n {
		return nil, ErrInvalidVector
	}
	vector := make([]float32, n)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	return vector, nil
}
