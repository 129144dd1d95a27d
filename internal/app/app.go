// internal/app/app.go
package app

import (
	"fmt"

	"github.com/Corphon/FarmVillageMCP/internal/config"
	"github.com/Corphon/FarmVillageMCP/internal/di"
	"github.com/Corphon/FarmVillageMCP/internal/services"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

// App 应用程序实例，持有DI容器
type App struct {
	Container *di.Container
	logger    *utils.Logger
}

// NewApp 创建应用实例
func NewApp(container *di.Container) *App {
	return &App{
		Container: container,
		logger:    utils.GetLogger(),
	}
}

// InitServices 按依赖顺序初始化并注册所有服务
func (a *App) InitServices(cfg *config.AppConfig) error {
	// 存储层
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	a.Container.Register("storage", fileStorage)

	// LLM服务
	llmService, err := services.NewLLMService(&services.LLMConfig{
		Provider: cfg.LLMProvider,
		Config:   cfg.LLMConfig,
		Debug:    cfg.DebugMode,
	})
	if err != nil {
		return fmt.Errorf("初始化LLM服务失败: %w", err)
	}
	a.Container.Register("llm", llmService)

	// 角色服务
	characterService := services.NewCharacterService(fileStorage, llmService)
	a.Container.Register("character", characterService)

	// 事件服务
	eventService := services.NewEventService(fileStorage, characterService, llmService, cfg.DefaultLanguage)
	a.Container.Register("event", eventService)

	a.logger.Info("服务初始化完成", map[string]interface{}{
		"llm_ready": llmService.IsReady(),
		"data_dir":  cfg.DataDir,
	})

	return nil
}
