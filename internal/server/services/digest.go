package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkruglov/fileshare/internal/common"
)

// digest produces a salted one-way digest of arbitrary input. bcrypt caps
// its input at 72 bytes, so the input is reduced to a sha256 hex string
// first; the minimum cost keeps per-part ingestion cheap while still
// making digests non-reproducible without the stored value.
func digest(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	pre := hex.EncodeToString(sum[:])

	d, err := bcrypt.GenerateFromPassword([]byte(pre), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return string(d), nil
}
