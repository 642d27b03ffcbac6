// Package auth validates bearer tokens for the API Gateway authorizer and
// logs clients in against Cognito.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stefando/ingestGatewayAWS/internal/log"
)

var (
	// ErrIssuerNotAllowed is returned for tokens from issuers outside the allow-list.
	ErrIssuerNotAllowed = errors.New("issuer not allowed")
	// ErrMissingTenant is returned for valid tokens without a tenant_id claim.
	ErrMissingTenant = errors.New("missing tenant_id claim")
)

// TokenInfo contains the validated token information
type TokenInfo struct {
	TenantID   string
	Username   string
	Expiration int64 // Unix timestamp
}

// Validator verifies access tokens issued by a fixed set of OIDC issuers.
// Verifiers are cached per issuer for the lifetime of the process.
type Validator struct {
	allowed     map[string]struct{}
	newVerifier func(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error)
	logger      *slog.Logger

	mu        sync.Mutex
	verifiers map[string]*verifierEntry
}

// verifierEntry serializes discovery for one issuer only.
type verifierEntry struct {
	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

// NewValidator creates a validator that only trusts allowedIssuers.
func NewValidator(allowedIssuers []string, logger *slog.Logger) *Validator {
	allowed := make(map[string]struct{}, len(allowedIssuers))
	for _, iss := range allowedIssuers {
		if iss = strings.TrimRight(strings.TrimSpace(iss), "/"); iss != "" {
			allowed[iss] = struct{}{}
		}
	}
	return &Validator{
		allowed:     allowed,
		newVerifier: discoverVerifier,
		logger:      log.WithComponent(logger, "auth"),
		verifiers:   make(map[string]*verifierEntry),
	}
}

// discoverVerifier connects to the issuer's OIDC endpoint to get the public keys.
func discoverVerifier(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider for issuer %s: %w", issuer, err)
	}
	// Access tokens have no aud claim.
	return provider.Verifier(&oidc.Config{SkipClientIDCheck: true}), nil
}

// Validate verifies signature, expiry and issuer of tokenStr and extracts the tenant.
func (v *Validator) Validate(ctx context.Context, tokenStr string) (*TokenInfo, error) {
	issuer, err := ExtractIssuer(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract issuer: %w", err)
	}
	if _, ok := v.allowed[strings.TrimRight(issuer, "/")]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrIssuerNotAllowed, issuer)
	}

	verifier, err := v.verifierFor(ctx, issuer)
	if err != nil {
		return nil, err
	}

	idToken, err := verifier.Verify(ctx, tokenStr)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var claims struct {
		TenantID string `json:"tenant_id"`
		Username string `json:"username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenant
	}

	v.logger.Debug("token validated", "tenant_id", claims.TenantID, "username", claims.Username)
	return &TokenInfo{
		TenantID:   claims.TenantID,
		Username:   claims.Username,
		Expiration: idToken.Expiry.Unix(),
	}, nil
}

// verifierFor returns the cached verifier for issuer, discovering it on first use.
// A slow or unreachable issuer only holds up tokens from that issuer.
func (v *Validator) verifierFor(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	entry, ok := v.verifiers[issuer]
	if !ok {
		entry = &verifierEntry{}
		v.verifiers[issuer] = entry
	}
	v.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.verifier != nil {
		return entry.verifier, nil
	}
	verifier, err := v.newVerifier(ctx, issuer)
	if err != nil {
		return nil, err
	}
	entry.verifier = verifier
	return verifier, nil
}

// ExtractIssuer reads the iss claim from a JWT without verifying it.
// The caller must verify the token against that issuer's keys before trusting anything in it.
func ExtractIssuer(tokenStr string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	issuer, err := token.Claims.GetIssuer()
	if err != nil || issuer == "" {
		return "", fmt.Errorf("missing or invalid issuer claim")
	}
	return issuer, nil
}

// AuthorizationHeader retrieves the authorization header regardless of its capitalization.
func AuthorizationHeader(headers map[string]string) (string, bool) {
	if h, ok := headers["Authorization"]; ok {
		return h, true
	}
	for k, h := range headers {
		if strings.EqualFold(k, "authorization") {
			return h, true
		}
	}
	return "", false
}

// StripBearerPrefix removes a case-insensitive "Bearer " prefix.
func StripBearerPrefix(token string) string {
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return strings.TrimSpace(token)
}
