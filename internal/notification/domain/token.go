package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var errMalformedToken = errors.New("malformed pubsub device token")

// KeyFingerprint is the short, stable digest of an application server key
// that prefixes every Pub/Sub device token.
func KeyFingerprint(vapidKey string) string {
	sum := sha256.Sum256([]byte(vapidKey))
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

// FormatPubSubToken builds the opaque token that routes pushes to a device
// subscription. A different key yields a different token for the same
// subscription.
func FormatPubSubToken(vapidKey, subscription string) string {
	return KeyFingerprint(vapidKey) + ":" + subscription
}

// ParsePubSubToken splits a token produced by FormatPubSubToken. Tokens from
// other platforms (for example FCM web tokens) fail to parse.
func ParsePubSubToken(token string) (fingerprint, subscription string, err error) {
	fingerprint, subscription, ok := strings.Cut(token, ":")
	if !ok || fingerprint == "" || !strings.HasPrefix(subscription, "projects/") ||
		!strings.Contains(subscription, "/subscriptions/") {
		return "", "", errMalformedToken
	}
	return fingerprint, subscription, nil
}
