package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/response"
	"github.com/obraplan/payroll-backend-go/internal/pkg/jwt"
)

// AuthRequired rejects requests without a verified access token. It must run
// after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.Unauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserID returns the user_id claim of the verified token, if any.
func UserID(r *http.Request) *string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return nil
	}
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
