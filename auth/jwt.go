package auth

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"pairs-server/matcherrors"
)

// Verifier validates Neon Auth JWTs against the JWKS published under the
// auth base URL. The key set is fetched on first use.
type Verifier struct {
	baseURL string
	issuer  string

	once    sync.Once
	keyfunc jwt.Keyfunc
	initErr error
}

// NewVerifier creates a Verifier for baseURL (e.g. NEON_AUTH_BASE_URL).
// An empty baseURL yields a Verifier that rejects every token.
func NewVerifier(baseURL string) *Verifier {
	return &Verifier{baseURL: strings.TrimRight(baseURL, "/")}
}

// NewStaticVerifier creates a Verifier that checks signatures with kf instead of a remote JWKS.
func NewStaticVerifier(issuer string, kf jwt.Keyfunc) *Verifier {
	v := &Verifier{baseURL: issuer, issuer: issuer, keyfunc: kf}
	v.once.Do(func() {})
	return v
}

// Enabled reports whether the verifier has somewhere to validate tokens against.
func (v *Verifier) Enabled() bool {
	return v != nil && v.baseURL != ""
}

func (v *Verifier) init() {
	u, err := url.Parse(v.baseURL)
	if err != nil {
		v.initErr = fmt.Errorf("invalid base URL: %w", err)
		return
	}
	v.issuer = u.Scheme + "://" + u.Host

	jwks, err := keyfunc.NewDefault([]string{v.baseURL + "/.well-known/jwks.json"})
	if err != nil {
		v.initErr = err
		return
	}
	v.keyfunc = jwks.Keyfunc
}

// ValidateToken checks the token's signature and issuer and returns its claims.
// Every failure wraps matcherrors.ErrUnauthorized.
func (v *Verifier) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, fmt.Errorf("%w: NEON_AUTH_BASE_URL is not set", matcherrors.ErrUnauthorized)
	}
	v.once.Do(v.init)
	if v.initErr != nil {
		return nil, fmt.Errorf("%w: %v", matcherrors.ErrUnauthorized, v.initErr)
	}

	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", matcherrors.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", matcherrors.ErrUnauthorized)
	}
	return claims, nil
}

// DisplayNameFromClaims returns the first word of the "name" claim, or fallback.
func DisplayNameFromClaims(claims jwt.MapClaims, fallback string) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return fallback
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
