package value

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
)

// SHA1Bytes returns the lowercase hex SHA-1 digest of b.
func SHA1Bytes(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// SHA1Reader returns the lowercase hex SHA-1 digest of everything read from
// r, and the number of bytes read. Used to hash a remote file source stream
// while it is copied into place.
func SHA1Reader(r io.Reader) (string, int64, error) {
	h := sha1.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
