// Package web provides the askboard HTTP server: routing, sessions and background jobs.
package web

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/common"
	"github.com/visioweb/askboard/web/controller"
	"github.com/visioweb/askboard/web/job"
	"github.com/visioweb/askboard/web/middleware"
	"github.com/visioweb/askboard/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Server is the askboard web server with its controllers and scheduled jobs.
type Server struct {
	cfg        *config.Config
	services   *controller.Services
	httpServer *http.Server
	listener   net.Listener

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		services: controller.NewServices(cfg),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// initRouter registers middleware and controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if err := s.cfg.RequireSecret(); err != nil {
		return nil, err
	}
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	// client addresses come from forwarding headers only when set by a listed proxy
	if err := engine.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(s.cfg.SecretKey))
	engine.Use(session.Sessions(store, session.NewOptions(s.cfg.Env == config.EnvProduction)))

	api := engine.Group("/api", middleware.LoadUser(s.services.Users))
	{
		controller.NewAuthController(api.Group("/auth"), s.services)
		controller.NewQuestionController(api.Group("/questions"), s.services)
		controller.NewAnswerController(api.Group("/answers"), s.services)
		controller.NewUserController(api.Group("/users"), s.services)
		controller.NewAdminController(api.Group("/admin"), s.services)
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": config.GetName(), "version": config.GetVersion()})
	})

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "msg": "not found"})
	})

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@hourly", job.NewCheckpointJob()); err != nil {
		logger.Warning("add checkpoint job err:", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	go func() {
		defer common.Recover("web server")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped: ", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts down the web server and the cron scheduler.
// Requests still running after the grace period see their context cancelled.
func (s *Server) Stop() error {
	defer s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if errors.Is(err2, net.ErrClosed) {
			err2 = nil
		}
	}
	return common.Combine(err1, err2)
}
