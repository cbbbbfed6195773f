package auth

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/nkiryanov/linkstash/internal/apperrors"
	"github.com/nkiryanov/linkstash/internal/clock"
)

const totpPeriod = 30 // seconds per TOTP step

// TotpVerifier checks 6 digit TOTP codes against a base32 shared secret.
// A code is accepted if it matches the current step or any step within
// 'window' steps before or after it.
type TotpVerifier struct {
	window int
	clock  clock.Clock
}

func NewTotpVerifier(window int, clk clock.Clock) (*TotpVerifier, error) {
	if window < 1 {
		return nil, fmt.Errorf("totp window must be at least 1: %w", apperrors.ErrConfigIncomplete)
	}
	if clk == nil {
		clk = clock.System()
	}

	return &TotpVerifier{window: window, clock: clk}, nil
}

func (v *TotpVerifier) Verify(code string, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, v.clock.Now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      uint(v.window),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateTotpSecret mints a fresh base32 shared secret for the user
func GenerateTotpSecret(username string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "linkstash",
		AccountName: username,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("error while generating totp secret. Err: %w", err)
	}

	return key.Secret(), nil
}
