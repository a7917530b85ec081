package svscan

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash"
	"io"
	"os"
	"syscall"
)

// Digest is the raw SHA-256 digest a Fingerprint is keyed by. It is a
// comparable array so it can be used directly as a map key.
type Digest [sha256.Size]byte

// Fingerprint identifies a service's launch script at a point in time.
// Two fingerprints are equal iff the underlying files had the same path
// and byte-for-byte identical content when read. The path is carried for
// diagnostics only; equality and ordering are defined over the digest.
type Fingerprint struct {
	digest Digest
	path   string
}

// Digest returns the raw digest bytes
func (f Fingerprint) Digest() Digest { return f.digest }

// Path returns the path the fingerprint was computed from
func (f Fingerprint) Path() string { return f.path }

// Equal reports whether both fingerprints carry the same digest
func (f Fingerprint) Equal(other Fingerprint) bool { return f.digest == other.digest }

// Compare orders fingerprints lexicographically over their digest bytes
func (f Fingerprint) Compare(other Fingerprint) int {
	return bytes.Compare(f.digest[:], other.digest[:])
}

// String renders the unpadded base64 digest followed by the originating path
func (f Fingerprint) String() string {
	return base64.RawStdEncoding.EncodeToString(f.digest[:]) + " [" + f.path + "]"
}

// fingerprintBufSize is the scratch buffer size for streaming file content
const fingerprintBufSize = 32 * 1024

// FingerprintFile computes the Fingerprint of the file at path.
//
// The digest covers, in order: the path bytes, a zero byte, the path length
// as a little-endian uint64, a zero byte, the full file content, a zero
// byte, and the content length as a little-endian uint64. The explicit
// length framing keeps distinct (path, content) pairs from colliding through
// concatenation ambiguity.
//
// Content is streamed in bounded chunks; reads interrupted by EINTR are
// retried. Any other I/O error aborts the computation and is returned as an
// *OpError naming the path.
func FingerprintFile(path string) (Fingerprint, error) {
	h := sha256.New()
	var frame [8]byte

	h.Write([]byte(path))
	h.Write([]byte{0})
	binary.LittleEndian.PutUint64(frame[:], uint64(len(path)))
	h.Write(frame[:])
	h.Write([]byte{0})

	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, &OpError{Op: OpFingerprint, Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	total, err := hashContent(h, f)
	if err != nil {
		return Fingerprint{}, &OpError{Op: OpFingerprint, Path: path, Err: err}
	}

	h.Write([]byte{0})
	binary.LittleEndian.PutUint64(frame[:], total)
	h.Write(frame[:])

	fp := Fingerprint{path: path}
	h.Sum(fp.digest[:0])
	return fp, nil
}

// hashContent streams r into h and returns the number of bytes consumed.
// EINTR is retried; every other read error is returned as-is.
func hashContent(h hash.Hash, r io.Reader) (uint64, error) {
	buf := make([]byte, fingerprintBufSize)
	var total uint64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
			total += uint64(n)
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return total, nil
		case errors.Is(err, syscall.EINTR):
		default:
			return total, err
		}
	}
}
