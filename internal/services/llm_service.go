// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/llm"
	"github.com/Corphon/FarmVillageMCP/internal/utils"

	_ "github.com/Corphon/FarmVillageMCP/internal/llm/providers/google"
	_ "github.com/Corphon/FarmVillageMCP/internal/llm/providers/openai"
)

// LLMConfig LLM服务配置
type LLMConfig struct {
	Provider     string            `json:"provider"`
	Config       map[string]string `json:"config"`
	DefaultModel string            `json:"default_model"`
	Debug        bool              `json:"debug"`
}

// LLMService 封装对LLM提供商的结构化访问
type LLMService struct {
	provider llm.Provider
	config   *LLMConfig
	mutex    sync.RWMutex
	logger   *utils.Logger

	// 响应缓存
	cache      map[string]*llmCacheEntry
	cacheMutex sync.RWMutex
	cacheTTL   time.Duration
}

type llmCacheEntry struct {
	response  string
	timestamp time.Time
}

// NewLLMService 创建LLM服务
// 如果没有配置API密钥，服务会创建成功但处于未就绪状态
func NewLLMService(config *LLMConfig) (*LLMService, error) {
	service := &LLMService{
		config:   config,
		logger:   utils.GetLogger(),
		cache:    make(map[string]*llmCacheEntry),
		cacheTTL: 10 * time.Minute,
	}

	if config == nil || config.Config["api_key"] == "" {
		service.logger.Warn("LLM服务未配置API密钥，生成功能不可用", nil)
		return service, nil
	}

	if err := service.initProvider(config.Provider, config.Config); err != nil {
		service.logger.Error("LLM提供商初始化失败", map[string]interface{}{
			"provider": config.Provider,
			"error":    err.Error(),
		})
		return service, nil
	}

	return service, nil
}

// initProvider 初始化指定的提供商
func (s *LLMService) initProvider(providerName string, config map[string]string) error {
	provider, err := llm.GetProvider(providerName, config)
	if err != nil {
		return fmt.Errorf("初始化提供商失败: %w", err)
	}

	s.mutex.Lock()
	s.provider = provider
	s.mutex.Unlock()

	s.logger.Info("LLM提供商已就绪", map[string]interface{}{
		"provider": provider.GetName(),
	})

	return nil
}

// IsReady 检查服务是否可以处理请求
func (s *LLMService) IsReady() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.provider != nil
}

// GetReadyState 返回服务状态描述
func (s *LLMService) GetReadyState() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state := map[string]interface{}{
		"ready": s.provider != nil,
	}

	if s.provider != nil {
		state["provider"] = s.provider.GetName()
		state["models"] = s.provider.GetSupportedModels()
	} else {
		state["reason"] = "未配置LLM提供商或API密钥"
	}

	return state
}

// UpdateProvider 切换或更新提供商配置
func (s *LLMService) UpdateProvider(providerName string, config map[string]string) error {
	if config["api_key"] == "" {
		return errors.NewValidationError("API密钥不能为空", nil)
	}

	if err := s.initProvider(providerName, config); err != nil {
		return errors.WrapError(err, "更新LLM提供商失败", errors.ErrorTypeInternal)
	}

	s.mutex.Lock()
	if s.config == nil {
		s.config = &LLMConfig{}
	}
	s.config.Provider = providerName
	s.config.Config = config
	s.mutex.Unlock()

	// 提供商变更后缓存失效
	s.cacheMutex.Lock()
	s.cache = make(map[string]*llmCacheEntry)
	s.cacheMutex.Unlock()

	return nil
}

// defaultModel 返回配置的默认模型（可能为空，由提供商决定）
func (s *LLMService) defaultModel() string {
	if s.config == nil {
		return ""
	}
	if s.config.DefaultModel != "" {
		return s.config.DefaultModel
	}
	return s.config.Config["default_model"]
}

// CreateStructuredCompletion 执行补全并将JSON响应解析到outputSchema
func (s *LLMService) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, outputSchema interface{}) error {
	s.mutex.RLock()
	provider := s.provider
	s.mutex.RUnlock()

	if provider == nil {
		return errors.NewGenerationError("LLM服务未就绪，请先配置API密钥", nil)
	}

	// 要求JSON输出
	jsonSystemPrompt := systemPrompt
	if jsonSystemPrompt != "" {
		jsonSystemPrompt += "\n\n"
	}
	jsonSystemPrompt += "Return your response in valid JSON format that matches the requested structure. Do not include any explanatory text outside the JSON."

	cacheKey := s.cacheKey(prompt, jsonSystemPrompt)
	if cached, ok := s.getCached(cacheKey); ok {
		return json.Unmarshal([]byte(cached), outputSchema)
	}

	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: jsonSystemPrompt,
		Model:        s.defaultModel(),
		Temperature:  0.3,
		MaxTokens:    4096,
	})
	if err != nil {
		return errors.NewGenerationError("LLM请求失败", err)
	}

	cleaned := cleanJSONString(resp.Text)
	if cleaned == "" {
		return errors.NewGenerationError("LLM响应中没有有效的JSON内容", nil)
	}

	if err := json.Unmarshal([]byte(cleaned), outputSchema); err != nil {
		s.logger.Error("解析LLM响应失败", map[string]interface{}{
			"error":    err.Error(),
			"response": truncateForLog(resp.Text, 500),
		})
		return errors.NewGenerationError("解析LLM响应失败", err)
	}

	s.putCache(cacheKey, cleaned)

	return nil
}

// cacheKey 基于请求内容生成缓存键
func (s *LLMService) cacheKey(prompt, systemPrompt string) string {
	s.mutex.RLock()
	providerName := ""
	if s.provider != nil {
		providerName = s.provider.GetName()
	}
	model := s.defaultModel()
	s.mutex.RUnlock()

	raw := prompt + ":::" + systemPrompt + ":::" + model + ":::" + providerName
	hash := md5.Sum([]byte(raw))
	return hex.EncodeToString(hash[:])
}

func (s *LLMService) getCached(key string) (string, bool) {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	entry, exists := s.cache[key]
	if !exists || time.Since(entry.timestamp) > s.cacheTTL {
		return "", false
	}
	return entry.response, true
}

func (s *LLMService) putCache(key, response string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.cache[key] = &llmCacheEntry{
		response:  response,
		timestamp: time.Now(),
	}
}

// cleanJSONString 从LLM响应中提取JSON内容
// 处理markdown代码块、BOM和JSON前后的说明文字
func cleanJSONString(input string) string {
	cleaned := strings.TrimSpace(input)

	// 移除BOM
	cleaned = strings.TrimPrefix(cleaned, "\uFEFF")

	// 移除markdown代码块标记
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	// 定位第一个JSON起始符号
	start := -1
	var open, close byte
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] == '{' || cleaned[i] == '[' {
			start = i
			open = cleaned[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start == -1 {
		return ""
	}

	// 括号平衡扫描，忽略字符串内部的括号
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case open:
			if !inString {
				depth++
			}
		case close:
			if !inString {
				depth--
				if depth == 0 {
					return cleaned[start : i+1]
				}
			}
		}
	}

	return ""
}

// truncateForLog 截断过长的文本用于日志输出
func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
