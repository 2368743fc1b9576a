package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/handler"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the chat-mcp-gateway service
func main() {
	var configFile string
	flag.StringVar(&configFile, "f", "etc/gateway.yaml", "the config file")
	flag.Parse()

	c := config.MustLoadConfig(configFile)
	logger.SetLevel(c.Log.Level)
	defer logger.Sync()

	svcCtx := bootstrap.NewServiceContext(c)
	defer svcCtx.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterHandlers(router, svcCtx)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.Host, c.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
