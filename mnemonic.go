package cardano

import (
	"strings"

	"github.com/pkg/errors"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Supported recovery phrase lengths and their entropy sizes in bits.
var phraseEntropyBits = map[int]int{
	12: 128,
	15: 160,
	24: 256,
}

// ValidateRecoveryPhrase checks word-list membership and the embedded
// checksum. It is a total function: any malformed input returns false, it
// never returns an error or panics.
func ValidateRecoveryPhrase(phrase string) bool {
	words := strings.Fields(phrase)
	if _, ok := phraseEntropyBits[len(words)]; !ok {
		return false
	}
	return bip39.IsMnemonicValid(strings.Join(words, " "))
}

// GenerateRecoveryPhrase produces a fresh phrase of 12, 15 or 24 words from
// system entropy.
func GenerateRecoveryPhrase(wordCount int) (phrase string, err error) {
	bits, ok := phraseEntropyBits[wordCount]
	if !ok {
		err = errors.Errorf("unsupported phrase length: %d words", wordCount)
		return
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	phrase, err = bip39.NewMnemonic(entropy)
	if err != nil {
		err = errors.WithStack(err)
	}

	SecureErase(entropy)

	return
}

// phraseEntropy recovers the raw entropy a phrase encodes. The caller owns
// the returned buffer and must SecureErase it.
func phraseEntropy(phrase string) (entropy []byte, err error) {
	words := strings.Fields(phrase)
	if _, ok := phraseEntropyBits[len(words)]; !ok {
		err = errors.Wrapf(ErrInvalidRecoveryPhrase,
			"expected 12, 15 or 24 words, got %d", len(words))
		return
	}

	entropy, err = bip39.EntropyFromMnemonic(strings.Join(words, " "))
	if err != nil {
		err = errors.Wrap(ErrInvalidRecoveryPhrase, err.Error())
	}
	return
}
