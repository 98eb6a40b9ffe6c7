package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CallbackSignature computes the hex HMAC-SHA256 of the exact raw request
// body. The signature covers bytes-on-wire: re-serializing the parsed JSON
// would silently break verification on any field-ordering or whitespace
// difference, so callers must pass the body as read from the connection.
func CallbackSignature(rawBody []byte, privateKey string) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackSignature checks a provided hex signature against the HMAC
// of the raw body. The comparison is constant-time; only a length mismatch
// returns early, which leaks nothing useful since the expected length is
// public (32-byte digest).
func VerifyCallbackSignature(rawBody []byte, providedHex, privateKey string) bool {
	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	return hmac.Equal(expected, provided)
}
