package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
)

var (
	ErrSecretNotConfigured = errors.New("signature secret not configured")
	ErrMissingSignature    = errors.New("missing signature")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrBodyTooLarge        = errors.New("signed body exceeds size limit")
)

// Sign returns the hex-encoded HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a hex-encoded HMAC-SHA256 signature of body.
// The comparison is constant time over the decoded digest.
func VerifySignature(secret string, body []byte, signatureHex string) error {
	provided, err := decodeSignature(secret, signatureHex)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return compare(mac, provided)
}

// VerifyReader authenticates everything read from body and returns it.
// At most limit bytes are kept. A body that overruns limit is still hashed to
// the end, so a bad signature is always reported as ErrInvalidSignature; only
// a correctly signed oversized body yields ErrBodyTooLarge.
func VerifyReader(secret string, body io.Reader, limit int64, signatureHex string) ([]byte, error) {
	provided, err := decodeSignature(secret, signatureHex)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	kept, err := io.ReadAll(io.TeeReader(io.LimitReader(body, limit+1), mac))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrInvalidSignature, err)
	}

	tooLarge := int64(len(kept)) > limit
	if tooLarge {
		if _, err := io.Copy(mac, body); err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrInvalidSignature, err)
		}
	}

	if err := compare(mac, provided); err != nil {
		return nil, err
	}
	if tooLarge {
		return nil, ErrBodyTooLarge
	}
	return kept, nil
}

func decodeSignature(secret, signatureHex string) ([]byte, error) {
	if secret == "" {
		return nil, ErrSecretNotConfigured
	}
	if signatureHex == "" {
		return nil, ErrMissingSignature
	}

	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex encoding", ErrInvalidSignature)
	}
	return provided, nil
}

func compare(mac hash.Hash, provided []byte) error {
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrInvalidSignature
	}
	return nil
}
