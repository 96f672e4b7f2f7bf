package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/jwtauth/v5"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/response"
)

const (
	RoleAdmin = "admin"
	RoleHR    = "hr"
)

// RequireRole allows the request only when the token's role is one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			role, ok := claims["role"].(string)
			if !ok || !slices.Contains(roles, role) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' cannot perform this action", role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
