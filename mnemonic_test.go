package cardano

import (
	"strings"
	"testing"
)

const testPhrase = "eight country switch draw meat scout mystery blade tip drift useless good keep usage title"

func TestValidateRecoveryPhrase(t *testing.T) {
	testCases := []struct {
		phrase string
		valid  bool
	}{
		{testPhrase, true},
		{"  " + strings.ToLower(testPhrase) + "  ", true},
		{"", false},
		{"eight country switch", false},
		{"eight country switch draw meat scout mystery blade tip drift useless good keep usage usage", false},
		{"notaword country switch draw meat scout mystery blade tip drift useless good keep usage title", false},
		{"invalid-address", false},
	}

	for _, testCase := range testCases {
		if got := ValidateRecoveryPhrase(testCase.phrase); got != testCase.valid {
			t.Fatalf("expected valid=%v for phrase '%s', got %v",
				testCase.valid, testCase.phrase, got)
		}
	}
}

func TestGenerateRecoveryPhrase(t *testing.T) {
	for _, words := range []int{12, 15, 24} {
		phrase, err := GenerateRecoveryPhrase(words)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if got := len(strings.Fields(phrase)); got != words {
			t.Fatalf("expected %d words, got %d", words, got)
		}
		if !ValidateRecoveryPhrase(phrase) {
			t.Fatalf("generated phrase failed validation: %s", phrase)
		}
	}

	if _, err := GenerateRecoveryPhrase(13); err == nil {
		t.Fatal("expected error for unsupported word count")
	}
}

func TestGenerateRecoveryPhraseUnique(t *testing.T) {
	first, err := GenerateRecoveryPhrase(24)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	second, err := GenerateRecoveryPhrase(24)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if first == second {
		t.Fatal("two generated phrases should not collide")
	}
}
