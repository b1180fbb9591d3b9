package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rafflelab/backend/pkg/errorx"
	"github.com/rafflelab/backend/pkg/router"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Value string `json:"value" form:"value"`
}

type echoResponse struct {
	Value string `json:"value"`
}

func echo(err error) router.HandlerFunc[echoRequest, echoResponse] {
	return func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		if err != nil {
			return nil, err
		}

		return &echoResponse{Value: req.Value}, nil
	}
}

func TestRouter(t *testing.T) {
	r := router.New(context.Background())
	router.GET(r, "/get", echo(nil))
	router.POST(r, "/post", echo(nil))
	router.POST(r, "/notFound", echo(errorx.New(errorx.NotFound, "Not found sale")))
	router.POST(r, "/insufficient", echo(errorx.New(errorx.InsufficientBalance, "Insufficient balance")))
	router.POST(r, "/badRequest", echo(errorx.New(errorx.BadRequest, "Bad")))
	router.POST(r, "/chain", echo(errors.New("connection reset")))
	handler := r.Handler(nil)

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   int64
	}{
		{name: "get", method: http.MethodGet, path: "/get?value=x", status: http.StatusOK},
		{name: "post", method: http.MethodPost, path: "/post", body: `{"value":"x"}`, status: http.StatusOK},
		{name: "invalid json", method: http.MethodPost, path: "/post", body: `{`, status: http.StatusBadRequest, code: int64(errorx.BadRequest)},
		{name: "not found", method: http.MethodPost, path: "/notFound", body: `{}`, status: http.StatusNotFound, code: int64(errorx.NotFound)},
		{name: "insufficient", method: http.MethodPost, path: "/insufficient", body: `{}`, status: http.StatusNotFound, code: int64(errorx.InsufficientBalance)},
		{name: "bad request", method: http.MethodPost, path: "/badRequest", body: `{}`, status: http.StatusBadRequest, code: int64(errorx.BadRequest)},
		{name: "raw error", method: http.MethodPost, path: "/chain", body: `{}`, status: http.StatusInternalServerError, code: int64(errorx.Unknown.Code)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)

			var resp struct {
				Code int64         `json:"code"`
				Data *echoResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusOK {
				require.Equal(t, "x", resp.Data.Value)
			}
		})
	}
}

func TestRouter_EmptyBody(t *testing.T) {
	r := router.New(context.Background())
	router.POST(r, "/post", echo(nil))

	req := httptest.NewRequest(http.MethodPost, "/post", nil)
	w := httptest.NewRecorder()
	r.Handler(nil).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
