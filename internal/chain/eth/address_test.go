package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Vectors from EIP-55.
//
//nolint:gochecknoglobals // Test data
var checksumVectors = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestToChecksumAddress(t *testing.T) {
	t.Parallel()
	for _, want := range checksumVectors {
		t.Run(want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, ToChecksumAddress(want))
			assert.Equal(t, want, ToChecksumAddress("0x"+lowerHex(want)))
			// go-ethereum agrees with our encoding
			assert.Equal(t, common.HexToAddress(want).Hex(), ToChecksumAddress(want))
		})
	}
}

func TestToChecksumAddress_InvalidUnchanged(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "not-an-address", ToChecksumAddress("not-an-address"))
	assert.Empty(t, ToChecksumAddress(""))
}

func TestIsValidAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"uppercase", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"no prefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"too short", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeA", false},
		{"too long", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00", false},
		{"empty", "", false},
		{"non hex", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeZ", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.valid, IsValidAddress(tc.address))
		})
	}
}

func TestValidateChecksumAddress(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateChecksumAddress(checksumVectors[0]))
	require.NoError(t, ValidateChecksumAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	require.NoError(t, ValidateChecksumAddress("0x0000000000000000000000000000000000000000"))

	err := ValidateChecksumAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD")
	require.ErrorIs(t, err, poolerr.ErrInvalidChecksum)
	assert.Equal(t, checksumVectors[0], poolerr.Detail(err, "expected"))

	err = ValidateChecksumAddress("0x123")
	require.ErrorIs(t, err, poolerr.ErrInvalidAddress)
}

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", checksumVectors[0], nil},
		{"uppercase", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", checksumVectors[0], nil},
		{"surrounding spaces", "  " + checksumVectors[1] + " ", checksumVectors[1], nil},
		{"bad checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", "", poolerr.ErrInvalidChecksum},
		{"garbage", "pool", "", poolerr.ErrInvalidAddress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeAddress(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEqualAddress(t *testing.T) {
	t.Parallel()
	assert.True(t, EqualAddress(checksumVectors[0], "0x"+lowerHex(checksumVectors[0])))
	assert.False(t, EqualAddress(checksumVectors[0], checksumVectors[1]))
}

func TestToCommon(t *testing.T) {
	t.Parallel()
	addr, err := ToCommon("0x" + lowerHex(checksumVectors[2]))
	require.NoError(t, err)
	assert.Equal(t, checksumVectors[2], addr.Hex())

	_, err = ToCommon("0xnope")
	require.ErrorIs(t, err, poolerr.ErrInvalidAddress)
}

func lowerHex(addr string) string {
	out := []byte(addr[2:])
	for i, c := range out {
		if c >= 'A' && c <= 'F' {
			out[i] = c + ('a' - 'A')
		}
	}
	return string(out)
}
