package scms

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// blobMagic guards against feeding arbitrary blobs into DecodeBlob.
const blobMagic = uint32(0x53434d31) // "SCM1"

// EncodeBlob serializes a model for storage. The layout is little-endian:
// magic, dim, mean, packed covariance, packed inverse covariance. Round-trips
// are lossless.
func EncodeBlob(m *Model) ([]byte, error) {
	if m == nil || m.dim == 0 {
		return nil, fmt.Errorf("encode fingerprint: empty model")
	}
	buf := new(bytes.Buffer)
	for _, v := range []any{blobMagic, uint32(m.dim), m.mean, m.cov, m.icov} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("encode fingerprint: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeBlob deserializes a model previously produced by EncodeBlob.
func DecodeBlob(blob []byte) (*Model, error) {
	buf := bytes.NewReader(blob)
	var magic, dim uint32
	if err := binary.Read(buf, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	if magic != blobMagic {
		return nil, fmt.Errorf("decode fingerprint: bad magic %#x", magic)
	}
	if err := binary.Read(buf, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	if dim == 0 || dim > 1024 {
		return nil, fmt.Errorf("decode fingerprint: implausible dimension %d", dim)
	}

	m := &Model{
		dim:  int(dim),
		mean: make([]float64, dim),
		cov:  make([]float64, packedLen(int(dim))),
		icov: make([]float64, packedLen(int(dim))),
	}
	for _, dst := range []any{m.mean, m.cov, m.icov} {
		if err := binary.Read(buf, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("decode fingerprint: %w", err)
		}
	}
	return m, nil
}
