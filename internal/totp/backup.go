package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const backupCodeSaltLength = 8 // bytes

// GenerateBackupCodes returns a fresh set of recovery codes together with
// their salted hashes. The plaintext codes are shown to the user exactly
// once; only the hashes are persisted.
func (e *Engine) GenerateBackupCodes() (codes []string, hashes []string, err error) {
	codes = make([]string, 0, e.config.BackupCodeCount)
	hashes = make([]string, 0, e.config.BackupCodeCount)
	seen := make(map[string]struct{}, e.config.BackupCodeCount)

	for len(codes) < e.config.BackupCodeCount {
		code, err := randomCode(e.config.BackupCodeLength)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		hash, err := HashBackupCode(code)
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		hashes = append(hashes, hash)
	}

	return codes, hashes, nil
}

// HashBackupCode hashes a candidate code under a fresh random salt. The
// stored form is "salthex$digesthex"; look up a presented code with
// MatchBackupCode.
func HashBackupCode(code string) (string, error) {
	salt := make([]byte, backupCodeSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate backup code salt: %w", err)
	}
	return hex.EncodeToString(salt) + "$" + saltedDigest(salt, code), nil
}

// MatchBackupCode reports whether code matches a stored salted hash.
// Normalization tolerates lowercase entry and stray whitespace.
func MatchBackupCode(stored, code string) bool {
	saltHex, digest, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(saltedDigest(salt, code)), []byte(digest)) == 1
}

func saltedDigest(salt []byte, code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

func randomCode(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate backup code: %w", err)
	}
	var b strings.Builder
	b.Grow(length)
	for _, v := range raw {
		b.WriteByte(backupCodeAlphabet[int(v)%len(backupCodeAlphabet)])
	}
	return b.String(), nil
}
