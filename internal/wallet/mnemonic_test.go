package wallet

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

const abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// Entropy/mnemonic pairs from the trezor python-mnemonic vectors.
//
//nolint:gochecknoglobals // BIP39 test vectors
var bip39TestVectors = []struct {
	entropy  string
	mnemonic string
}{
	{"00000000000000000000000000000000", abandonMnemonic},
	{"7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f", "legal winner thank year wave sausage worth useful legal winner thank yellow"},
	{"80808080808080808080808080808080", "letter advice cage absurd amount doctor acoustic avoid letter advice cage above"},
	{"ffffffffffffffffffffffffffffffff", "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong"},
	{
		"0000000000000000000000000000000000000000000000000000000000000000",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art",
	},
}

func TestGenerateMnemonic_Vectors(t *testing.T) {
	t.Parallel()
	for _, v := range bip39TestVectors {
		t.Run(v.entropy, func(t *testing.T) {
			t.Parallel()
			entropy, err := hex.DecodeString(v.entropy)
			require.NoError(t, err)

			words := 12
			if len(entropy) == 32 {
				words = 24
			}
			mnemonic, err := GenerateMnemonic(bytes.NewReader(entropy), words)
			require.NoError(t, err)
			assert.Equal(t, v.mnemonic, mnemonic)
			assert.NoError(t, ValidateMnemonic(mnemonic))
		})
	}
}

func TestGenerateMnemonic_Random(t *testing.T) {
	t.Parallel()
	a, err := GenerateMnemonic(nil, 12)
	require.NoError(t, err)
	b, err := GenerateMnemonic(nil, 12)
	require.NoError(t, err)

	assert.Len(t, strings.Fields(a), 12)
	assert.NotEqual(t, a, b)
}

func TestGenerateMnemonic_InvalidWordCount(t *testing.T) {
	t.Parallel()
	_, err := GenerateMnemonic(nil, 15)
	require.ErrorIs(t, err, veroxerr.ErrInvalidMnemonic)
}

func TestGenerateMnemonic_EntropyFailure(t *testing.T) {
	t.Parallel()
	_, err := GenerateMnemonic(bytes.NewReader([]byte{1, 2, 3}), 12)
	require.ErrorIs(t, err, veroxerr.ErrEntropyUnavailable)
}

func TestValidateMnemonic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", abandonMnemonic, false},
		{"valid uppercase with extra spaces", "  ABANDON  abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about ", false},
		{"numbered list", "1. abandon\n2. abandon\n3. abandon\n4. abandon\n5. abandon\n6. abandon\n7. abandon\n8. abandon\n9. abandon\n10. abandon\n11. abandon\n12. about", false},
		{"empty", "", true},
		{"eleven words", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", true},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", true},
		{"unknown word", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abuot", true},
		{"not words", "this is not a valid mnemonic phrase at all okay friend yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMnemonic(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, veroxerr.ErrInvalidMnemonic)
				assert.Equal(t, veroxerr.KindInput, veroxerr.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateMnemonic_TypoSuggestion(t *testing.T) {
	t.Parallel()
	err := ValidateMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandn about")
	require.Error(t, err)

	var ve *veroxerr.VeroxError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Suggestion, "Word 11: 'abandn' - did you mean 'abandon'?")
}

func TestNormalizeMnemonicInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{"Abandon  ABOUT", "abandon about"},
		{"- abandon\n- about", "abandon about"},
		{"1) abandon\n2) about", "abandon about"},
		{"abandon,about", "abandon about"},
		{"\t abandon \n", "abandon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeMnemonicInput(tt.input), tt.input)
	}
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abandon", SuggestWord("abandon"))
	assert.Equal(t, "abandon", SuggestWord("abandn"))
	assert.Empty(t, SuggestWord("xyzxyzxyz"))
}

func TestDetectTypos(t *testing.T) {
	t.Parallel()
	typos := DetectTypos("abandon qqqqqqqq abandn")
	require.Len(t, typos, 2)
	assert.Equal(t, 1, typos[0].Index)
	assert.Empty(t, typos[0].Suggestion)
	assert.Equal(t, 2, typos[1].Index)
	assert.Equal(t, "abandon", typos[1].Suggestion)
	assert.Equal(t, 1, typos[1].Distance)

	assert.Contains(t, FormatTypoSuggestions(typos), "Word 2: 'qqqqqqqq' is not a valid BIP39 word")
	assert.Nil(t, DetectTypos(abandonMnemonic))
}

func TestMnemonicToSeed(t *testing.T) {
	t.Parallel()
	seed, err := MnemonicToSeed(abandonMnemonic)
	require.NoError(t, err)
	assert.Equal(t,
		"5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4",
		hex.EncodeToString(seed))

	_, err = MnemonicToSeed("abandon")
	require.ErrorIs(t, err, veroxerr.ErrInvalidMnemonic)
}
