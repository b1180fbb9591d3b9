package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

type Router struct {
	inner gin.IRouter

	// ctx carries configs, logger and database which are copied to every
	// request context.
	ctx context.Context
}

func New(ctx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{inner: engine, ctx: ctx}
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Use(middlewares ...gin.HandlerFunc) {
	r.inner.Use(middlewares...)
}

func (r *Router) Group(pattern string, middlewares ...gin.HandlerFunc) *Router {
	return &Router{inner: r.inner.Group(pattern, middlewares...), ctx: r.ctx}
}

func (r *Router) Handle(method, pattern string, h http.Handler) {
	r.inner.Handle(method, pattern, gin.WrapH(h))
}

// Handler returns the root http.Handler. It must be called on the router
// returned by New.
func (r *Router) Handler(allowedOrigins []string) http.Handler {
	engine := r.inner.(*gin.Engine)
	if len(allowedOrigins) == 0 {
		return engine
	}

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(engine)
}

func (r *Router) requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	ctx = xcontext.WithConfigs(ctx, xcontext.Configs(r.ctx))
	ctx = xcontext.WithLogger(ctx, xcontext.Logger(r.ctx))
	if db := xcontext.DB(r.ctx); db != nil {
		ctx = xcontext.WithDB(ctx, db)
	}

	if id := c.GetHeader("X-Request-Id"); id != "" {
		ctx = xcontext.WithRequestID(ctx, id)
	}

	return ctx
}
