package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"tripfeed/pkg/config"
)

const defaultTimeout = 30 * time.Second

// HealthCheck 依赖健康检查
type HealthCheck func(ctx context.Context) error

// HTTPServer Gin HTTP服务器
type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	logger *kratoslog.Helper

	mu     sync.RWMutex
	checks map[string]HealthCheck
	addr   net.Addr
}

// NewHTTPServer 创建HTTP服务器，/health 为存活检查，/ready 检查所有依赖
func NewHTTPServer(cfg config.HTTPConfig, logger kratoslog.Logger) *HTTPServer {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &HTTPServer{
		engine: engine,
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      engine,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		logger: kratoslog.NewHelper(logger),
		checks: make(map[string]HealthCheck),
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	engine.GET("/ready", s.ready)
	return s
}

// Engine 获取Gin引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// AddHealthCheck 注册就绪检查项
func (s *HTTPServer) AddHealthCheck(name string, check HealthCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

func (s *HTTPServer) ready(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": results})
}

// Start 监听端口后在后台处理请求
func (s *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Infow("msg", "HTTP server starting", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("msg", "HTTP server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Addr 实际监听地址，启动前为 nil
func (s *HTTPServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Stop 优雅关闭
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Infow("msg", "HTTP server stopping")
	return s.server.Shutdown(ctx)
}
