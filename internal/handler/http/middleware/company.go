package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// RequireCompany rejects requests whose {companyID} path parameter differs
// from the company in the caller's token.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Invalid token")
			return
		}

		if companyID := chi.URLParam(r, "companyID"); companyID != "" && companyID != claims.CompanyID {
			response.Forbidden(w, "Resource does not belong to this company")
			return
		}

		next.ServeHTTP(w, r)
	})
}
