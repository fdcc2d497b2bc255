package core

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeMSA     AccountType = "msa"
	AccountTypeOffline AccountType = "offline"
)

// OfflineAccessToken is the sentinel access token carried by offline
// accounts — it is never sent anywhere, only used to satisfy the
// ${auth_access_token} placeholder.
const OfflineAccessToken = "0"

// Account represents a Minecraft account
type Account struct {
	ID              string      `json:"id"`          // UUID, no dashes
	Name            string      `json:"name"`        // Username
	Type            AccountType `json:"type"`        // msa or offline
	AccessToken     string      `json:"accessToken"` // Valid Minecraft Access Token
	ExpiresAt       time.Time   `json:"expiresAt"`   // When MC token expires
	MSARefreshToken string      `json:"msaRefreshToken,omitempty"` // For refreshing MSA token
}

// IsExpired checks if the token is expired (with 5m buffer). For MSA
// accounts this also cross-checks the JWT's own `exp` claim, since
// api.minecraftservices.com's access token is itself a JWT and the
// server-reported expires_in is sometimes optimistic.
func (a *Account) IsExpired() bool {
	if a.Type == AccountTypeOffline {
		return false
	}
	if time.Now().Add(5 * time.Minute).After(a.ExpiresAt) {
		return true
	}
	if claimsExp, ok := jwtExpiry(a.AccessToken); ok && time.Now().Add(5*time.Minute).After(claimsExp) {
		return true
	}
	return false
}

// jwtExpiry parses the unverified `exp` claim of a JWT access token. We
// never verify the signature here — we don't hold Microsoft's signing
// key — this is only a defensive cross-check against a stale ExpiresAt.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// UserType returns the ${user_type} launch placeholder value for this
// account.
func (a *Account) UserType() string {
	if a.Type == AccountTypeMSA {
		return "msa"
	}
	return "legacy"
}

// NewOfflineAccount builds an offline account with a deterministic,
// name-derived synthetic UUID (so the same username always maps to the
// same offline identity, matching vanilla's own "offline" UUID derivation)
// and the sentinel access token.
func NewOfflineAccount(name string) *Account {
	return &Account{
		ID:          offlineUUID(name),
		Name:        name,
		Type:        AccountTypeOffline,
		AccessToken: OfflineAccessToken,
	}
}

func offlineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	// Set version (3) and variant bits, vanilla-style, then hex-encode
	// without dashes per spec.md's Account.uuid representation.
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return hex.EncodeToString(sum[:])
}
