package cardano

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	// KeyHashLength is the byte length of blake2b-224 credential hashes.
	KeyHashLength = 28

	// TxHashLength is the byte length of blake2b-256 transaction body hashes.
	TxHashLength = 32
)

func Blake2bSum224(data []byte) (hash []byte, err error) {
	h, err := blake2b.New(KeyHashLength, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create blake2b hash")
		return
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func Blake2bSum256(data []byte) (hash []byte, err error) {
	h, err := blake2b.New(TxHashLength, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create blake2b hash")
		return
	}
	h.Write(data)
	return h.Sum(nil), nil
}
