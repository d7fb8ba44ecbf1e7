package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Password reset tokens are stateless: base64url(username:expiryEpoch:mac)
// where mac = base64url(HMAC-SHA256(secret, "username:expiryEpoch")).
// Nothing is persisted; possession of a token with a valid MAC inside the
// expiry window proves the service issued it.

// IssuePasswordResetToken mints a reset token for the username, valid for
// the configured reset lifetime.
func (c *TokenCodec) IssuePasswordResetToken(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("reset token: username is required")
	}
	if strings.Contains(username, ":") {
		return "", fmt.Errorf("reset token: username must not contain a colon")
	}

	expiry := c.now().UTC().Add(c.resetTTL).Unix()
	payload := username + ":" + strconv.FormatInt(expiry, 10)
	token := payload + ":" + c.resetMAC(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

// VerifyPasswordResetToken checks structure, MAC, and expiry in that order
// and returns the embedded username. All failures surface ErrInvalidToken.
func (c *TokenCodec) VerifyPasswordResetToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// Tolerate padded input from clients that re-encode.
		decoded, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return "", ErrInvalidToken
		}
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	username, expiryPart, mac := parts[0], parts[1], parts[2]
	if username == "" {
		return "", ErrInvalidToken
	}

	expected := c.resetMAC(username + ":" + expiryPart)
	if !hmac.Equal([]byte(mac), []byte(expected)) {
		return "", ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryPart, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !c.now().UTC().Before(time.Unix(expiry, 0)) {
		return "", ErrInvalidToken
	}

	return username, nil
}

func (c *TokenCodec) resetMAC(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
