package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	// AccountNumberBase is the smallest account number ever issued.
	AccountNumberBase int64 = 1_000_000_000
	// AccountNumberSpan is the number of distinct values GenerateAccountNumber can return.
	AccountNumberSpan int64 = 90_000_000
)

// GenerateAccountNumber returns a 10-digit account number starting with 1.
// It does not check whether the number is already in use.
func GenerateAccountNumber() int64 {
	num, err := rand.Int(rand.Reader, big.NewInt(AccountNumberSpan))
	if err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return AccountNumberBase + num.Int64()
}

// ValidateAccountNumber reports whether n could have been issued by GenerateAccountNumber.
func ValidateAccountNumber(n int64) bool {
	return n >= AccountNumberBase && n < AccountNumberBase+AccountNumberSpan
}

// ValidateMobileNumber checks the mobile number is exactly ten digits.
func ValidateMobileNumber(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
