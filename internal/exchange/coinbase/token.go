package coinbase

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/cbgate/cbgate/internal/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// MaxTokenTTL is the exchange-imposed ceiling on JWT validity
	MaxTokenTTL = 120 * time.Second
	// cacheBuffer is how long before expiry a cached token stops being served
	cacheBuffer = 10 * time.Second

	tokenIssuer = "cdp"
)

// AuthToken is one signed bearer token. Replaced, never mutated.
type AuthToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs short-lived ES256 JWTs for the Coinbase Advanced
// Trade API and caches them per (method, host, path) route. Safe for
// concurrent use.
type TokenIssuer struct {
	apiKey string
	key    *ecdsa.PrivateKey
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*AuthToken
}

func NewTokenIssuer(creds *Credentials) (*TokenIssuer, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, apperrors.NewConfig("private key is not a valid EC PEM key", err)
	}
	return &TokenIssuer{
		apiKey: creds.APIKey,
		key:    key,
		now:    time.Now,
		cache:  make(map[string]*AuthToken),
	}, nil
}

// Issue signs a fresh token bound to the given route. The TTL is capped
// at MaxTokenTTL; zero or negative means the full 120 seconds.
func (ti *TokenIssuer) Issue(method, host, path string, ttl time.Duration) (*AuthToken, error) {
	if ttl <= 0 || ttl > MaxTokenTTL {
		ttl = MaxTokenTTL
	}
	now := ti.now()
	uri := fmt.Sprintf("%s %s%s", method, host, path)

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": tokenIssuer,
		"nbf": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"sub": ti.apiKey,
		"uri": uri,
	})
	tok.Header["kid"] = ti.apiKey
	tok.Header["nonce"] = newNonce()

	signed, err := tok.SignedString(ti.key)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInternal, "failed to sign auth token", err)
	}

	metrics.TokensIssued.Inc()
	logger.Debug("issued auth token", "uri", uri, "ttl", ttl.String())

	return &AuthToken{
		Value:     signed,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Token returns a cached token for the route while it has more than
// cacheBuffer of validity left, otherwise issues and caches a fresh one.
func (ti *TokenIssuer) Token(method, host, path string, useCache bool) (*AuthToken, error) {
	routeKey := fmt.Sprintf("%s %s%s", method, host, path)

	ti.mu.Lock()
	defer ti.mu.Unlock()

	if useCache {
		if cached, ok := ti.cache[routeKey]; ok && ti.now().Before(cached.ExpiresAt.Add(-cacheBuffer)) {
			return cached, nil
		}
	}

	token, err := ti.Issue(method, host, path, MaxTokenTTL)
	if err != nil {
		return nil, err
	}
	ti.cache[routeKey] = token
	return token, nil
}

// AuthHeaders builds the headers for an authenticated request to the route.
func (ti *TokenIssuer) AuthHeaders(method, host, path string) (map[string]string, error) {
	token, err := ti.Token(method, host, path, true)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + token.Value,
		"Content-Type":  "application/json",
	}, nil
}

// newNonce returns a hex-encoded random 128-bit value. A per-token nonce
// keeps concurrently issued tokens distinct at the exchange.
func newNonce() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}
