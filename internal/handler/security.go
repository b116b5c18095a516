package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sneakyevil96/DatabaseProject/internal/domain/auth"
	"github.com/sneakyevil96/DatabaseProject/pkg/httpmiddleware"
)

// HeaderAPIKey carries the raw API key.
const HeaderAPIKey = "api_key"

type keyInfoKey struct{}

// KeyFromContext returns the key that authenticated the request.
func KeyFromContext(ctx context.Context) (*auth.APIKeyInfo, bool) {
	info, ok := ctx.Value(keyInfoKey{}).(*auth.APIKeyInfo)
	return info, ok
}

// Authenticator validates API keys against their stored HMAC-SHA256 hashes.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator returns an Authenticator using pepper as the HMAC key.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Authenticate resolves raw to a key that grants scope.
func (a *Authenticator) Authenticate(ctx context.Context, raw, scope string) (*auth.APIKeyInfo, error) {
	if raw == "" {
		return nil, auth.ErrUnauthorized
	}
	hash := auth.HashKey(a.pepper, raw)

	info, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	// Re-check the stored hash in constant time.
	want, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, auth.ErrUnauthorized
	}
	got, _ := hex.DecodeString(hash)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return nil, auth.ErrUnauthorized
	}
	if !info.HasScope(scope) {
		return nil, errors.Wrapf(auth.ErrUnauthorized, "key %d lacks scope %q", info.ID, scope)
	}
	return info, nil
}

// Require rejects requests without a valid key granting scope.
func (a *Authenticator) Require(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			info, err := a.Authenticate(ctx, r.Header.Get(HeaderAPIKey), scope)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrUnauthorized):
				zctx.From(ctx).Debug("API key rejected", zap.Error(err))
				httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid api key")
				return
			default:
				zctx.From(ctx).Error("API key lookup failed", zap.Error(err))
				httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, keyInfoKey{}, info)))
		})
	}
}
