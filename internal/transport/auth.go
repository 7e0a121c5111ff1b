package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/draftroom/draftroom/internal/auth"
)

type accountKey struct{}

// AccountVerifier resolves a bearer token to an account.
type AccountVerifier interface {
	Verify(token string) (*auth.Account, error)
}

// AccountFromContext returns the authenticated account from context, if
// present.
func AccountFromContext(ctx context.Context) (*auth.Account, bool) {
	acct, ok := ctx.Value(accountKey{}).(*auth.Account)
	return acct, ok
}

// AuthMiddleware resolves an optional bearer token. Requests without a
// token proceed as the device guest; requests with an invalid token are
// rejected rather than silently downgraded to guest scoping.
func AuthMiddleware(verifier AccountVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			acct, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey{}, acct)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
