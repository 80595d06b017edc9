package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rolegate/internal/domain"
	jwtinfra "github.com/go-rolegate/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		claims  *jwtinfra.Claims
		allowed []string
		status  int
	}{
		{"no claims", nil, []string{domain.OperatorRoleAdmin}, http.StatusUnauthorized},
		{"viewer on admin route", &jwtinfra.Claims{Role: domain.OperatorRoleViewer}, []string{domain.OperatorRoleAdmin}, http.StatusForbidden},
		{"admin", &jwtinfra.Claims{Role: domain.OperatorRoleAdmin}, []string{domain.OperatorRoleAdmin}, http.StatusOK},
		{"either role", &jwtinfra.Claims{Role: domain.OperatorRoleViewer}, []string{domain.OperatorRoleAdmin, domain.OperatorRoleViewer}, http.StatusOK},
		{"empty role", &jwtinfra.Claims{}, []string{domain.OperatorRoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(context.Background(), tt.claims))
			}
			rr := httptest.NewRecorder()
			RequireRole(tt.allowed...)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRequireRole_ErrorBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &jwtinfra.Claims{Role: domain.OperatorRoleViewer}))
	rr := httptest.NewRecorder()
	RequireRole(domain.OperatorRoleAdmin)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.JSONEq(t, `{"error":"forbidden"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
