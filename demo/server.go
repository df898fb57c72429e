// Package demo implements the HTTP service the harness exercises over the
// wire: latency endpoints, a deliberately racy key-value counter, and a
// lock-protected room reservation.
package demo

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seravalle/locklab/lock"
	"github.com/seravalle/locklab/resource"
)

// Server wires the demo endpoints to a lock and a critical resource.
type Server struct {
	log      zerolog.Logger
	counters resource.Counter
	claims   resource.Claimable
	locker   lock.Locker
	lease    time.Duration
	registry *prometheus.Registry
}

// Config carries the server dependencies.
type Config struct {
	Logger   zerolog.Logger
	Counters resource.Counter
	Claims   resource.Claimable
	Locker   lock.Locker
	// Lease is the lock lease used around reservations.
	Lease time.Duration
	// Registry serves /metrics; nil disables the endpoint.
	Registry *prometheus.Registry
}

// NewServer returns a demo server.
func NewServer(cfg Config) *Server {
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Second
	}
	return &Server{
		log:      cfg.Logger,
		counters: cfg.Counters,
		claims:   cfg.Claims,
		locker:   cfg.Locker,
		lease:    cfg.Lease,
		registry: cfg.Registry,
	}
}

// Router builds the gin engine with all demo routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "locklab demo", "status": "running"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	r.GET("/api/fast", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "fast response"})
	})
	r.GET("/api/medium", func(c *gin.Context) {
		time.Sleep(50 * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"data": "medium response"})
	})
	r.GET("/api/slow", func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"data": "slow response"})
	})

	r.GET("/api/kv/:key", s.getCounter)
	r.POST("/api/kv/:key", s.setCounter)
	r.POST("/api/reserve/:room", s.reserveRoom)
	r.GET("/api/reserve/:room", s.getReservation)

	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
	return r
}

func (s *Server) getCounter(c *gin.Context) {
	value, err := s.counters.ReadState(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

// setCounter overwrites the value with no conflict detection. The read and
// the write of a client's increment cycle are two separate requests, which
// is the race the harness demonstrates.
func (s *Server) setCounter(c *gin.Context) {
	value, err := strconv.ParseInt(c.Query("value"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be an integer"})
		return
	}
	if err := s.counters.WriteState(c.Request.Context(), c.Param("key"), value); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

func (s *Server) reserveRoom(c *gin.Context) {
	room := c.Param("room")
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var claimed bool
	err := lock.With(c.Request.Context(), s.locker, "lock:room:"+room, s.lease, func(ctx context.Context) error {
		ok, err := s.claims.TryClaim(ctx, "room:"+room, userID)
		if err != nil {
			return err
		}
		claimed = ok
		return nil
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !claimed {
		c.JSON(http.StatusConflict, gin.H{"room": room, "error": "already reserved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "reserved_by": userID})
}

func (s *Server) getReservation(c *gin.Context) {
	room := c.Param("room")
	claimant, found, err := s.claims.ClaimantOf(c.Request.Context(), "room:"+room)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"room": room})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "reserved_by": claimant})
}
