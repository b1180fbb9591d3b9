package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rafflelab/backend/config"
	"github.com/rafflelab/backend/internal/middleware"
	"github.com/rafflelab/backend/internal/model"
	"github.com/rafflelab/backend/pkg/authenticator"
	"github.com/rafflelab/backend/pkg/logger"
	"github.com/rafflelab/backend/pkg/router"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type whoamiResponse struct {
	ID string `json:"id"`
}

func whoami(ctx context.Context, _ *struct{}) (*whoamiResponse, error) {
	return &whoamiResponse{ID: xcontext.RequestUserID(ctx)}, nil
}

func newAuthRouter(secret string) (http.Handler, authenticator.TokenEngine[model.AccessToken]) {
	cfg := config.Configs{Token: config.TokenConfigs{Secret: secret, Expiration: time.Hour}}
	ctx := xcontext.WithConfigs(context.Background(), cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))

	engine := authenticator.NewTokenEngine[model.AccessToken](cfg.Token)
	r := router.New(ctx)
	admin := r.Group("", middleware.Authenticate(ctx, engine, model.RoleAdmin))
	router.GET(admin, "/whoami", whoami)

	return r.Handler(nil), engine
}

func TestAuthenticate(t *testing.T) {
	handler, engine := newAuthRouter("secret")

	adminToken, err := engine.Generate("alice", model.AccessToken{ID: "alice", Role: model.RoleAdmin})
	require.NoError(t, err)
	operatorToken, err := engine.Generate("bob", model.AccessToken{ID: "bob", Role: model.RoleOperator})
	require.NoError(t, err)
	otherEngine := authenticator.NewTokenEngine[model.AccessToken](config.TokenConfigs{Secret: "other"})
	forgedToken, err := otherEngine.Generate("alice", model.AccessToken{ID: "alice", Role: model.RoleAdmin})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "admin", header: "Bearer " + adminToken, status: http.StatusOK},
		{name: "no header", status: http.StatusUnauthorized},
		{name: "not bearer", header: adminToken, status: http.StatusUnauthorized},
		{name: "forged", header: "Bearer " + forgedToken, status: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + operatorToken, status: http.StatusForbidden},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				require.Contains(t, w.Body.String(), `"id":"alice"`)
			}
		})
	}
}

func TestAuthenticate_NoSecret(t *testing.T) {
	handler, _ := newAuthRouter("")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
