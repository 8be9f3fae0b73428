// Package wallet derives the single account keypair from a BIP-39 mnemonic
// and generates new mnemonics. Nothing here performs I/O or keeps state.
package wallet

import (
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	"github.com/verox-wallet/verox/internal/keycrypto"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// DefaultWordCount is the mnemonic length used for new wallets.
const DefaultWordCount = 12

var (
	// whitespaceRegex matches one or more whitespace characters.
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)

	wordIndex = sync.OnceValue(func() map[string]struct{} {
		list := bip39.GetWordList()
		m := make(map[string]struct{}, len(list))
		for _, w := range list {
			m[w] = struct{}{}
		}
		return m
	})
)

func entropyBits(wordCount int) (int, error) {
	switch wordCount {
	case 12:
		return 128, nil
	case 24:
		return 256, nil
	default:
		return 0, veroxerr.WithDetails(veroxerr.ErrInvalidMnemonic,
			map[string]string{"words": strconv.Itoa(wordCount), "allowed": "12 or 24"})
	}
}

// GenerateMnemonic creates a new BIP-39 phrase of wordCount words (12 or 24)
// using entropy read from r (crypto/rand when nil).
func GenerateMnemonic(r io.Reader, wordCount int) (string, error) {
	bits, err := entropyBits(wordCount)
	if err != nil {
		return "", err
	}

	entropy, err := keycrypto.RandomBytes(r, bits/8)
	if err != nil {
		return "", veroxerr.WrapWith(veroxerr.ErrEntropyUnavailable, err)
	}
	defer keycrypto.Zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", veroxerr.WrapWith(veroxerr.ErrEntropyUnavailable, err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks word count, word membership and checksum.
// Unknown words come back with a correction hint in the error suggestion.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)
	if normalized == "" {
		return veroxerr.ErrInvalidMnemonic
	}

	// Fast word count check before the checksum work
	words := strings.Fields(normalized)
	if _, err := entropyBits(len(words)); err != nil {
		return err
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return veroxerr.WithSuggestion(veroxerr.ErrInvalidMnemonic, FormatTypoSuggestions(typos))
	}

	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return veroxerr.WithDetails(veroxerr.ErrInvalidMnemonic, map[string]string{"reason": "checksum mismatch"})
	}
	return nil
}

// NormalizeMnemonicInput lowercases the input, strips list numbering and
// bullets, turns commas into spaces and collapses whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed converts a validated phrase to the 64-byte BIP-39 seed with an
// empty passphrase. The caller must zero the seed.
func MnemonicToSeed(mnemonic string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonicInput(mnemonic), "")
	if err != nil {
		return nil, veroxerr.WrapWith(veroxerr.ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// IsValidWord checks if a word is in the BIP-39 English list.
func IsValidWord(word string) bool {
	_, ok := wordIndex()[strings.ToLower(word)]
	return ok
}

// MaxTypoDistance is the largest Levenshtein distance still offered as a hint.
const MaxTypoDistance = 2

// TypoInfo describes one unknown word and its closest list word.
type TypoInfo struct {
	Index      int // 0-based word position
	Word       string
	Suggestion string // empty when nothing is close enough
	Distance   int
}

// SuggestWord returns the closest BIP-39 word within MaxTypoDistance, or "".
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	if IsValidWord(input) {
		return input
	}

	minDist := math.MaxInt
	var suggestion string
	for _, word := range bip39.GetWordList() {
		if dist := levenshtein.ComputeDistance(input, word); dist < minDist {
			minDist = dist
			suggestion = word
		}
	}

	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// DetectTypos reports every word of mnemonic that is not in the list.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonicInput(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		info := TypoInfo{Index: i, Word: word, Suggestion: SuggestWord(word)}
		if info.Suggestion != "" {
			info.Distance = levenshtein.ComputeDistance(word, info.Suggestion)
		}
		typos = append(typos, info)
	}
	return typos
}

// FormatTypoSuggestions renders typos one per line, 1-indexed.
func FormatTypoSuggestions(typos []TypoInfo) string {
	lines := make([]string, 0, len(typos))
	for _, typo := range typos {
		line := "Word " + strconv.Itoa(typo.Index+1) + ": '" + typo.Word + "'"
		if typo.Suggestion != "" {
			line += " - did you mean '" + typo.Suggestion + "'?"
		} else {
			line += " is not a valid BIP39 word"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
