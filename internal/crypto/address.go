package crypto

import (
	"fmt"
	"regexp"
	"strings"
)

// Supported crypto types for payments and withdrawals.
const (
	Bitcoin  = "bitcoin"
	Ethereum = "ethereum"
	Dogecoin = "dogecoin"
)

var addressPatterns = map[string]*regexp.Regexp{
	Bitcoin:  regexp.MustCompile(`^(bc1|[13])[a-zA-HJ-NP-Z0-9]{25,39}$`),
	Ethereum: regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	Dogecoin: regexp.MustCompile(`^D{1}[5-9A-HJ-NP-U]{1}[1-9A-HJ-NP-Za-km-z]{32}$`),
}

// tx hashes are 32 bytes hex; ethereum tooling usually prefixes 0x
var txHashPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// IsSupported reports whether the crypto type is known.
func IsSupported(cryptoType string) bool {
	_, ok := addressPatterns[cryptoType]
	return ok
}

// ValidateAddress checks the wallet address format for the given crypto type.
func ValidateAddress(address, cryptoType string) error {
	pattern, ok := addressPatterns[cryptoType]
	if !ok {
		return fmt.Errorf("unsupported crypto type %q", cryptoType)
	}
	if address == "" {
		return fmt.Errorf("empty wallet address")
	}
	if !pattern.MatchString(address) {
		return fmt.Errorf("invalid %s wallet address format", cryptoType)
	}
	return nil
}

// ValidateTxHash checks the transaction hash format for the given crypto type.
func ValidateTxHash(hash, cryptoType string) error {
	if !IsSupported(cryptoType) {
		return fmt.Errorf("unsupported crypto type %q", cryptoType)
	}
	if hash == "" {
		return fmt.Errorf("empty transaction hash")
	}
	if cryptoType == Ethereum {
		hash = strings.TrimPrefix(hash, "0x")
	}
	if !txHashPattern.MatchString(hash) {
		return fmt.Errorf("invalid %s transaction hash format", cryptoType)
	}
	return nil
}
