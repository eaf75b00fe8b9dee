// Package relay accepts visitor addresses collected by a web page and
// forwards them to the notifier.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/notify"
	"wanwatch/internal/report"
	"wanwatch/internal/types"
	"wanwatch/internal/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Error bodies
const (
	errMissingIP   = "Missing ip field"
	errInvalidIP   = "Invalid ip field"
	errUndelivered = "Failed to send message to Telegram"
	errInternal    = "Internal server error"
)

// collectRequest is the body of POST /collect-ip
type collectRequest struct {
	IP string `json:"ip"`
}

// Server is the relay HTTP endpoint
type Server struct {
	config    *config.RelayConfig
	notifier  notify.Notifier
	formatter *report.Formatter
	validate  *validator.Validator
	logger    *zap.Logger
	engine    *gin.Engine
}

// NewServer creates the relay and registers its routes
func NewServer(cfg *config.RelayConfig, notifier notify.Notifier, formatter *report.Formatter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:    cfg,
		notifier:  notifier,
		formatter: formatter,
		validate:  validator.New(),
		logger:    logger.Named("relay"),
		engine:    gin.New(),
	}

	s.engine.Use(s.requestID(), s.logRequests(), s.recovery(), s.cors())
	s.engine.GET("/", s.handleHealth)
	s.engine.POST("/collect-ip", s.handleCollect)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on the configured address until ctx ends, then shuts
// down gracefully. A listen failure is returned immediately.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info("Starting relay", zap.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("relay server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Stopping relay")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown relay: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "wanwatch relay is running.")
}

// handleCollect forwards a posted visitor address to the notifier
func (s *Server) handleCollect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.IP) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingIP})
		return
	}

	addr := strings.TrimSpace(req.IP)
	if !s.validate.IsIP(addr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidIP})
		return
	}

	text, err := s.formatter.Visitor(types.Address(addr))
	if err != nil {
		s.logger.Error("Failed to render visitor message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	if err := s.notifier.Send(c.Request.Context(), text); err != nil {
		s.logger.Warn("Failed to relay visitor address",
			zap.String("address", addr),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": errUndelivered})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "IP sent to Telegram"})
}
