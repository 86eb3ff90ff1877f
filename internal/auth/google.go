package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// ErrInvalidIDToken covers every reason a Google ID token is refused.
var ErrInvalidIDToken = errors.New("auth: invalid google id token")

type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleVerifier checks Google sign-in ID tokens against Google's published
// signing keys.
type GoogleVerifier struct {
	clientID   string
	jwksURL    string
	httpClient *http.Client
	now        func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return NewGoogleVerifierWithJWKS(clientID, GoogleJWKSURL, &http.Client{Timeout: 10 * time.Second})
}

// NewGoogleVerifierWithJWKS allows pointing the verifier at another key set.
func NewGoogleVerifierWithJWKS(clientID, jwksURL string, client *http.Client) *GoogleVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleVerifier{clientID: clientID, jwksURL: jwksURL, httpClient: client, now: time.Now}
}

// Verify validates signature, issuer, audience and expiry and returns the
// signed-in identity.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	if v.clientID == "" {
		return Identity{}, fmt.Errorf("%w: client id not configured", ErrInvalidIDToken)
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(idToken, &googleClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	kid, ok := unverified.Header["kid"].(string)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing key id", ErrInvalidIDToken)
	}
	key, err := v.publicKey(ctx, kid)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	},
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if !validGoogleIssuer(claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if !claims.EmailVerified {
		return Identity{}, fmt.Errorf("%w: email not verified", ErrInvalidIDToken)
	}
	email, err := NormalizeEmail(claims.Email)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	return Identity{Email: email, Name: claims.Name}, nil
}

func validGoogleIssuer(iss string) bool {
	for _, allowed := range googleIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

// publicKey returns the cached key for kid, refreshing the set when the cache
// is stale or the key is unknown.
func (v *GoogleVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	if v.now().Before(v.expires) {
		if key, ok := v.keys[kid]; ok {
			v.mu.RUnlock()
			return key, nil
		}
	}
	v.mu.RUnlock()

	keys, err := v.fetchJWKS(ctx)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.keys = keys
	v.expires = v.now().Add(time.Hour)
	v.mu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *GoogleVerifier) fetchJWKS(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWKS request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed with status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("no valid RSA keys found in JWKS")
	}
	return keys, nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
