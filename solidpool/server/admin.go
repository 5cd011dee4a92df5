package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sjy-dv/solidpool/solidpool/pkg/log"
	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

// AdminServer exposes pool introspection and a drain endpoint over HTTP.
type AdminServer struct {
	pool    poolcore.Pool
	limiter *rate.Limiter
	srv     *http.Server
}

func NewAdminServer(pool poolcore.Pool, addr string, rps float64, burst int) *AdminServer {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	a := &AdminServer{
		pool:    pool,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), a.rateLimit())

	engine.GET("/healthz", a.health)
	v1 := engine.Group("/v1")
	{
		v1.GET("/stat", a.stat)
		v1.POST("/shutdown", a.shutdown)
	}

	a.srv = &http.Server{Addr: addr, Handler: engine}
	return a
}

func (a *AdminServer) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

func (a *AdminServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *AdminServer) stat(c *gin.Context) {
	st := a.pool.Stat()
	c.JSON(http.StatusOK, gin.H{
		"idle":     st.Idle,
		"in_use":   st.InUse,
		"size":     st.Size(),
		"capacity": st.Capacity,
	})
}

func (a *AdminServer) shutdown(c *gin.Context) {
	report := a.pool.Shutdown()
	failures := make([]string, 0, len(report.Failures))
	for _, err := range report.Failures {
		failures = append(failures, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"closed":   report.ClosedCount,
		"failures": failures,
	})
}

func (a *AdminServer) Run() error {
	log.Info("admin server listening on ", a.srv.Addr)
	if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *AdminServer) Stop(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

// Handler is exposed for tests.
func (a *AdminServer) Handler() http.Handler {
	return a.srv.Handler
}
