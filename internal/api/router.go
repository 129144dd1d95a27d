// internal/api/router.go
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Corphon/FarmVillageMCP/internal/di"
	"github.com/Corphon/FarmVillageMCP/internal/services"
)

// SetupRouter 创建并配置所有API路由
func SetupRouter(container *di.Container) *gin.Engine {
	router := gin.Default()

	router.Use(corsMiddleware())

	llmService, _ := container.Get("llm").(*services.LLMService)
	characterService, _ := container.Get("character").(*services.CharacterService)
	eventService, _ := container.Get("event").(*services.EventService)

	handler := NewHandler(llmService, characterService, eventService)

	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		characters := api.Group("/characters")
		{
			characters.POST("", handler.GenerateCharacter)
			characters.GET("", handler.ListCharacters)
			characters.GET("/:id", handler.GetCharacter)
			characters.DELETE("/:id", handler.DeleteCharacter)
		}

		events := api.Group("/events")
		{
			events.POST("", handler.CreateEvent)
			events.GET("", handler.ListEvents)
			events.GET("/:id", handler.GetEvent)
			events.DELETE("/:id", handler.DeleteEvent)
		}

		llm := api.Group("/llm")
		{
			llm.GET("/status", handler.GetLLMStatus)
			llm.GET("/models", handler.GetLLMModels)
			llm.PUT("/config", handler.UpdateLLMConfig)
		}
	}

	// WebSocket: 实时推送事件回合
	router.GET("/ws/events/generate", handler.GenerateEventWS)

	return router
}

// corsMiddleware 跨域支持
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
