// Package qr builds and parses the account-linking URLs that are rendered
// as QR codes on enrollment kiosks and scanned by the mobile app.
package qr

import (
	"errors"
	"net/url"
	"strings"
)

// LinkPath is the app route that consumes a registration token.
const LinkPath = "/link-account"

// TokenParam is the query parameter carrying the registration token.
const TokenParam = "token"

// ErrNoToken indicates no registration token could be extracted.
var ErrNoToken = errors.New("no registration token in scanned payload")

// BuildLinkURL returns the URL embedded in the enrollment QR code:
// <base>/link-account?token=<token>. Pure function of its inputs.
func BuildLinkURL(baseURL, token string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return base + LinkPath + "?" + TokenParam + "=" + url.QueryEscape(token)
}

// ParseToken extracts the registration token from a scanned payload.
// The payload may be a full link URL or the bare token itself; decoders on
// older terminals hand back whichever they captured. The returned token is
// byte-for-byte what BuildLinkURL embedded.
func ParseToken(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ErrNoToken
	}

	// Full URL form: pull the token query parameter.
	if strings.Contains(payload, "://") || strings.HasPrefix(payload, LinkPath) {
		parsed, err := url.Parse(payload)
		if err != nil {
			return "", ErrNoToken
		}
		token := parsed.Query().Get(TokenParam)
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	}

	// Bare token form. Reject anything with URL structure that slipped
	// through, so a mangled scan never passes as a credential.
	if strings.ContainsAny(payload, "/?&= ") {
		return "", ErrNoToken
	}

	return payload, nil
}
