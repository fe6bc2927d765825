// internal/auth/verifier.go
package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

// Verifier turns a bearer credential into normalized claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// CognitoVerifier validates JWTs issued by a Cognito user pool against the
// pool's JWKS. A credential may be either an access token or an id token;
// verification tries the access interpretation first, then the id one,
// because the two carry different token_use and audience claims.
type CognitoVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	clientID string
}

func NewCognitoVerifier(region, userPoolID, clientID string) (*CognitoVerifier, error) {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
	jwksURL := issuer + "/.well-known/jwks.json"

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			log.Printf("JWKS refresh failed: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return &CognitoVerifier{jwks: jwks, issuer: issuer, clientID: clientID}, nil
}

func (v *CognitoVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no credential supplied", apperr.ErrUnauthenticated)
	}

	claims, err := v.verifyAs(token, "access")
	if err != nil {
		claims, err = v.verifyAs(token, "id")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	return claims, nil
}

func (v *CognitoVerifier) verifyAs(token, tokenUse string) (*Claims, error) {
	raw := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, raw, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	if use, _ := raw["token_use"].(string); use != tokenUse {
		return nil, fmt.Errorf("unexpected token_use %q", use)
	}
	if iss, _ := raw["iss"].(string); iss != v.issuer {
		return nil, fmt.Errorf("unexpected issuer")
	}

	// Access tokens carry the app client in client_id, id tokens in aud.
	switch tokenUse {
	case "access":
		if cid, _ := raw["client_id"].(string); cid != v.clientID {
			return nil, fmt.Errorf("client_id mismatch")
		}
	case "id":
		if !raw.VerifyAudience(v.clientID, true) {
			return nil, fmt.Errorf("audience mismatch")
		}
	}

	return ClaimsFromToken(raw), nil
}

// Close stops the background JWKS refresh.
func (v *CognitoVerifier) Close() {
	v.jwks.EndBackground()
}

// DevVerifier returns a fixed development identity for every credential,
// including an empty one. It is selected explicitly by configuration when
// Cognito is not set up; it must never be reachable in production.
type DevVerifier struct {
	Identity Claims
}

func NewDevVerifier() *DevVerifier {
	return &DevVerifier{
		Identity: Claims{
			Sub:      "dev-00000000-0000-0000-0000-000000000000",
			Username: "dev_user",
			Email:    "dev@example.invalid",
			Name:     "Dev User",
			Groups:   []string{"admin"},
		},
	}
}

func (v *DevVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	identity := v.Identity
	return &identity, nil
}
