package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadSignature = errors.New("ipn signature mismatch")

// canonical re-serializes the payload as compact JSON with sorted keys,
// which is the exact byte form the provider signs.
func canonical(payload []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode ipn payload: %w", err)
	}
	return json.Marshal(m)
}

// VerifySignature checks the x-*-signature header: HMAC-SHA512 of the
// canonical payload under the shared secret, compared in constant time.
func VerifySignature(payload []byte, secret, signature string) error {
	body, err := canonical(payload)
	if err != nil {
		return err
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
