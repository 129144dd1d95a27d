// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/FarmVillageMCP/internal/api"
	"github.com/Corphon/FarmVillageMCP/internal/app"
	"github.com/Corphon/FarmVillageMCP/internal/config"
	"github.com/Corphon/FarmVillageMCP/internal/di"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

func main() {
	// 加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化配置管理器（合并持久化配置）
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化配置失败: %v", err)
	}

	cfg := config.GetCurrentConfig()

	// 初始化日志
	logFile := filepath.Join(cfg.LogDir, "server.log")
	if err := utils.InitLogger(logFile); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	logger := utils.GetLogger()
	if cfg.DebugMode {
		logger.SetLogLevel(utils.DEBUG)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化服务
	container := di.GetContainer()
	application := app.NewApp(container)
	if err := application.InitServices(cfg); err != nil {
		logger.Fatal("初始化服务失败", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// 配置路由并启动HTTP服务
	router := api.SetupRouter(container)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("服务器启动", map[string]interface{}{
			"port": cfg.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器异常退出", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始关闭", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭失败", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("服务器已关闭", nil)
}
