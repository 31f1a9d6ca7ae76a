package data

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// HashBytes returns the hex encoded MD5 digest of b.
// MD5 is the digest object storage reports as ETag for single part uploads,
// which allows remote hashes to be compared without downloading content.
func HashBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// HashReader consumes r and returns its hex encoded MD5 digest and length.
func HashReader(r io.Reader) (string, int64, error) {
	h := md5.New()

	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}
