// Package eth holds the Ethereum-specific pieces of CosmosPool: address
// handling and the fixed contract ABIs the deposit flow calls into.
package eth

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

const addressLength = 42

// IsValidAddress reports whether s is a 0x-prefixed 40 hex character address.
// The checksum is not inspected.
func IsValidAddress(s string) bool {
	if len(s) != addressLength || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// ToChecksumAddress returns the EIP-55 form of address.
// Invalid input is returned unchanged.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}

	lower := strings.ToLower(address[2:])
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write([]byte(lower))
	digest := hex.EncodeToString(hasher.Sum(nil))

	var b strings.Builder
	b.Grow(addressLength)
	b.WriteString("0x")
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ValidateChecksumAddress checks the EIP-55 checksum of a mixed-case address.
// Single-case addresses carry no checksum and are accepted.
func ValidateChecksumAddress(address string) error {
	if !IsValidAddress(address) {
		return poolerr.WithDetails(poolerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}

	if expected := ToChecksumAddress(address); address != expected {
		return poolerr.WithDetails(poolerr.ErrInvalidChecksum, map[string]string{
			"expected": expected,
			"actual":   address,
		})
	}
	return nil
}

// NormalizeAddress validates address and returns its checksummed form.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if err := ValidateChecksumAddress(address); err != nil {
		return "", err
	}
	return ToChecksumAddress(address), nil
}

// EqualAddress compares two addresses case-insensitively.
func EqualAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// ToCommon converts a validated address string into a go-ethereum address.
func ToCommon(address string) (common.Address, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(normalized), nil
}
