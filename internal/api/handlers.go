// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/FarmVillageMCP/internal/config"
	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/llm"
	"github.com/Corphon/FarmVillageMCP/internal/services"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

// Handler 包含API所需的所有服务依赖
type Handler struct {
	LLMService       *services.LLMService
	CharacterService *services.CharacterService
	EventService     *services.EventService
	Logger           *utils.Logger
}

// NewHandler 创建API处理器
func NewHandler(llm *services.LLMService, characters *services.CharacterService, events *services.EventService) *Handler {
	return &Handler{
		LLMService:       llm,
		CharacterService: characters,
		EventService:     events,
		Logger:           utils.GetLogger(),
	}
}

// APIResponse 统一响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError API错误详情
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondSuccess 返回成功响应
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: uuid.NewString(),
	})
}

// respondError 把应用错误映射为HTTP响应
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch {
	case errors.IsValidationError(err):
		status = http.StatusBadRequest
		code = "VALIDATION_ERROR"
	case errors.IsNotFoundError(err):
		status = http.StatusNotFound
		code = "NOT_FOUND"
	case errors.IsGenerationError(err):
		status = http.StatusBadGateway
		code = "GENERATION_ERROR"
	}

	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: err.Error(),
		},
		Timestamp: time.Now(),
		RequestID: uuid.NewString(),
	})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": h.LLMService.IsReady(),
	})
}

// ---- 角色接口 ----

// generateCharacterRequest 角色生成请求
type generateCharacterRequest struct {
	Description string `json:"description"`
}

// GenerateCharacter 生成新角色
func (h *Handler) GenerateCharacter(c *gin.Context) {
	var req generateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, errors.NewValidationError("请求格式无效", err))
		return
	}

	character, err := h.CharacterService.GenerateCharacter(c.Request.Context(), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, character)
}

// ListCharacters 列出所有角色
func (h *Handler) ListCharacters(c *gin.Context) {
	characters, err := h.CharacterService.ListCharacters()
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, characters)
}

// GetCharacter 获取单个角色
func (h *Handler) GetCharacter(c *gin.Context) {
	character, err := h.CharacterService.GetCharacter(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, character)
}

// DeleteCharacter 删除角色
func (h *Handler) DeleteCharacter(c *gin.Context) {
	if err := h.CharacterService.DeleteCharacter(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ---- 事件接口 ----

// CreateEvent 创建并运行一个新事件
func (h *Handler) CreateEvent(c *gin.Context) {
	var req services.EventCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidationError("请求格式无效", err))
		return
	}

	result, err := h.EventService.CreateEvent(c.Request.Context(), &req, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, result)
}

// ListEvents 列出事件，支持 ?character_id= 过滤
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.EventService.ListEvents(c.Query("character_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, events)
}

// GetEvent 获取单个事件
func (h *Handler) GetEvent(c *gin.Context) {
	event, err := h.EventService.GetEvent(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, event)
}

// DeleteEvent 删除事件
func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.EventService.DeleteEvent(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ---- LLM配置接口 ----

// GetLLMStatus 返回LLM服务状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.LLMService.GetReadyState())
}

// GetLLMModels 列出已注册提供商及其支持的模型
func (h *Handler) GetLLMModels(c *gin.Context) {
	providers := llm.ListProviders()
	result := make(map[string][]string, len(providers))
	for _, name := range providers {
		result[name] = llm.GetSupportedModelsForProvider(name)
	}

	respondSuccess(c, http.StatusOK, result)
}

// updateLLMConfigRequest 更新LLM配置的请求
type updateLLMConfigRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config" binding:"required"`
}

// UpdateLLMConfig 切换LLM提供商或更新配置
func (h *Handler) UpdateLLMConfig(c *gin.Context) {
	var req updateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidationError("请求格式无效", err))
		return
	}

	if err := h.LLMService.UpdateProvider(req.Provider, req.Config); err != nil {
		respondError(c, err)
		return
	}

	// 持久化配置，失败时不影响已生效的提供商
	if err := config.UpdateLLMConfig(req.Provider, req.Config); err != nil {
		h.Logger.Warn("保存LLM配置失败", map[string]interface{}{
			"error": err.Error(),
		})
	}

	respondSuccess(c, http.StatusOK, h.LLMService.GetReadyState())
}
