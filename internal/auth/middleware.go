package auth

import (
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Identity headers set by the auth gateway after session/JWT validation.
// Authentication itself happens upstream; this service only consumes the
// resolved identity.
const (
	HeaderAccountID = "X-Account-Id"
	HeaderRole      = "X-Account-Role"
)

// RejectFunc renders an unauthenticated/forbidden response. Supplied by the
// transport layer so this package stays free of response-envelope concerns.
type RejectFunc func(w http.ResponseWriter, status int, message string)

// RequireActor parses the identity headers into an Actor and attaches it to
// the request context. Requests without a valid identity are rejected with
// 401 before reaching any handler.
func RequireActor(reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get(HeaderAccountID)
			rawRole := r.Header.Get(HeaderRole)
			if rawID == "" || rawRole == "" {
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			accountID, err := uuid.FromString(rawID)
			if err != nil {
				log.Warn().Str("account_id", rawID).Msg("auth: malformed account id header")
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			role, err := ParseRole(rawRole)
			if err != nil {
				log.Warn().Str("role", rawRole).Msg("auth: unknown role header")
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := WithActor(r.Context(), Actor{AccountID: accountID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route subtree to the given roles. Must be mounted
// after RequireActor.
func RequireRole(reject RejectFunc, roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !allowed[actor.Role] {
				reject(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
