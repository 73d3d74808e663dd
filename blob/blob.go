// Package blob seals encoded payloads for storage: an optional
// compression pass and a BLAKE3 digest of the raw bytes, checked on
// Open.
//
//	envelope = compression byte | uvarint(raw size) | digest [32]byte | body
package blob

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/evolve"
	"github.com/zeebo/blake3"
)

// MaxSize bounds the raw size of an envelope.
const MaxSize = 1 << 28

// ErrDigest is returned by Open when the payload does not match its
// digest.
var ErrDigest = errors.New("blob: digest mismatch")

// Digest is the keyed BLAKE3 hash of a raw payload.
type Digest [32]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])
}

var digestKey = [32]byte{'o', 'b', 'j', 'c', 'o', 'd', 'e', 'c', '.', 'b', 'l', 'o', 'b'}

// Sum computes the digest of raw.
func Sum(raw []byte) Digest {
	h, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("blob: blake3 key: " + err.Error())
	}
	h.Write(raw)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Header describes a sealed envelope.
type Header struct {
	Compression Compression
	Size        int
	Digest      Digest
}

// Seal wraps raw, compressed with c when that makes it smaller.
func Seal(raw []byte, c Compression) ([]byte, error) {
	body, err := compress(raw, c)
	switch {
	case errors.Is(err, errIncompressible):
		c, body = None, raw
	case err != nil:
		return nil, err
	}
	if debug.Merge() {
		debug.Logf("blob: sealing %d bytes as %s (%d)\n", len(raw), c, len(body))
	}
	d := Sum(raw)
	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(d)+len(body))
	out = append(out, byte(c))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	out = append(out, d[:]...)
	return append(out, body...), nil
}

// ReadHeader parses the header of env and returns it with the body.
func ReadHeader(env []byte) (Header, []byte, error) {
	var h Header
	if len(env) == 0 {
		return h, nil, &descriptor.MalformedInputError{Context: "blob: empty envelope"}
	}
	h.Compression = Compression(env[0])
	size, n := binary.Uvarint(env[1:])
	if n <= 0 {
		return h, nil, &descriptor.MalformedInputError{Context: "blob: bad size"}
	}
	if size > uint64(MaxSize) {
		return h, nil, &descriptor.MalformedInputError{Context: fmt.Sprintf("blob: size %d exceeds %d", size, MaxSize)}
	}
	h.Size = int(size)
	rest := env[1+n:]
	if len(rest) < len(h.Digest) {
		return h, nil, &descriptor.MalformedInputError{Context: "blob: short digest"}
	}
	copy(h.Digest[:], rest)
	return h, rest[len(h.Digest):], nil
}

// Open returns the raw payload sealed in env after checking its digest.
func Open(env []byte) ([]byte, error) {
	h, body, err := ReadHeader(env)
	if err != nil {
		return nil, err
	}
	raw, err := decompress(body, h.Compression, h.Size)
	if err != nil {
		return nil, &descriptor.MalformedInputError{Context: "blob", Err: err}
	}
	if Sum(raw) != h.Digest {
		return nil, ErrDigest
	}
	return raw, nil
}

// SealValue encodes v in the evolvable format and seals it.
func SealValue(v any, c Compression) ([]byte, error) {
	raw, err := evolve.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Seal(raw, c)
}

// OpenValue opens env and decodes its evolvable payload into v.
func OpenValue(env []byte, v any) error {
	raw, err := Open(env)
	if err != nil {
		return err
	}
	return evolve.Unmarshal(raw, v)
}
