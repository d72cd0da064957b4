// Package totp implements time-based one-time passwords (RFC 6238 over
// RFC 4226) and the backup-code scheme used for two-factor recovery.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const secretBytes = 20

// Config holds the verification window and backup-code parameters.
type Config struct {
	Issuer           string
	Digits           int
	Period           int
	Skew             int
	BackupCodeCount  int
	BackupCodeLength int
}

// Engine generates secrets and verifies codes. Safe for concurrent use.
type Engine struct {
	config Config
}

// New creates an Engine, filling unset config fields with the standard
// authenticator-app defaults (6 digits, 30 s period, ±2 steps of skew).
func New(cfg Config) *Engine {
	if cfg.Issuer == "" {
		cfg.Issuer = "Warelock"
	}
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	if cfg.Period <= 0 {
		cfg.Period = 30
	}
	if cfg.Skew <= 0 {
		cfg.Skew = 2
	}
	if cfg.BackupCodeCount <= 0 {
		cfg.BackupCodeCount = 10
	}
	if cfg.BackupCodeLength <= 0 {
		cfg.BackupCodeLength = 8
	}
	return &Engine{config: cfg}
}

// GenerateSecret returns a fresh random secret, base32-encoded without
// padding the way authenticator apps expect it.
func (e *Engine) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth:// URI embeddable in an authenticator
// app for the given account label.
func (e *Engine) ProvisioningURI(secret, account string) string {
	label := url.PathEscape(e.config.Issuer + ":" + account)

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", e.config.Issuer)
	v.Set("period", strconv.Itoa(e.config.Period))
	v.Set("digits", strconv.Itoa(e.config.Digits))
	v.Set("algorithm", "SHA1")

	return "otpauth://totp/" + label + "?" + v.Encode()
}

// VerifyCode checks a candidate code against the secret within the skew
// window, accepting slightly early and slightly late codes. Codes are
// compared as fixed-width digit strings in constant time. TOTP codes are
// reusable within their own time step; only backup codes are single-use.
func (e *Engine) VerifyCode(secret, code string, now time.Time) (bool, error) {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != e.config.Digits || !isDigits(trimmed) {
		return false, nil
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return false, fmt.Errorf("decode totp secret: %w", err)
	}
	if len(raw) == 0 {
		return false, errors.New("empty totp secret")
	}

	baseCounter := now.Unix() / int64(e.config.Period)
	for step := -e.config.Skew; step <= e.config.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		generated := hotpCode(raw, counter, e.config.Digits)
		if subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1 {
			return true, nil
		}
	}

	return false, nil
}

// CodeAt computes the code for a secret at a given time. Exposed for setup
// verification tests and tooling.
func (e *Engine) CodeAt(secret string, at time.Time) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}
	return hotpCode(raw, at.Unix()/int64(e.config.Period), e.config.Digits), nil
}

func hotpCode(secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
