// internal/services/event_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Corphon/FarmVillageMCP/internal/engine"
	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

const eventsDir = "events"

// EventCreateRequest 创建事件的请求参数
type EventCreateRequest struct {
	Description     string           `json:"description" binding:"required"`
	EventType       models.EventType `json:"event_type" binding:"required"`
	Location        string           `json:"location" binding:"required"`
	MinInteractions int              `json:"min_interactions"`
	MaxInteractions int              `json:"max_interactions"`
	CharacterAID    string           `json:"character_a_id" binding:"required"`
	CharacterBID    string           `json:"character_b_id" binding:"required"`
	CharacterAMood  models.Mood      `json:"character_a_mood"`
	CharacterBMood  models.Mood      `json:"character_b_mood"`

	CharacterATargetMood models.Mood `json:"character_a_target_mood,omitempty"`
	CharacterBTargetMood models.Mood `json:"character_b_target_mood,omitempty"`

	// 为空时使用服务的默认语言
	Language string `json:"language,omitempty"`
}

// toConfig 把请求转换为事件配置，补齐默认值
func (r *EventCreateRequest) toConfig(defaultLanguage string) models.EventConfig {
	config := models.EventConfig{
		Description:          r.Description,
		EventType:            r.EventType,
		Location:             r.Location,
		Timestamp:            time.Now(),
		MinInteractions:      r.MinInteractions,
		MaxInteractions:      r.MaxInteractions,
		CharacterAID:         r.CharacterAID,
		CharacterBID:         r.CharacterBID,
		CharacterAMood:       r.CharacterAMood,
		CharacterBMood:       r.CharacterBMood,
		CharacterATargetMood: r.CharacterATargetMood,
		CharacterBTargetMood: r.CharacterBTargetMood,
		Language:             r.Language,
	}

	if config.MinInteractions == 0 {
		config.MinInteractions = 3
	}
	if config.MaxInteractions == 0 {
		config.MaxInteractions = 10
	}
	if config.CharacterAMood == "" {
		config.CharacterAMood = models.MoodNeutral
	}
	if config.CharacterBMood == "" {
		config.CharacterBMood = models.MoodNeutral
	}
	if config.Language == "" {
		config.Language = defaultLanguage
	}

	return config
}

// EventService 管理事件的生成与持久化
type EventService struct {
	storage         *storage.FileStorage
	characters      *CharacterService
	oracle          engine.Oracle
	defaultLanguage string
	logger          *utils.Logger
}

// NewEventService 创建事件服务
func NewEventService(fs *storage.FileStorage, characters *CharacterService, oracle engine.Oracle, defaultLanguage string) *EventService {
	if defaultLanguage == "" {
		defaultLanguage = "spanish"
	}
	return &EventService{
		storage:         fs,
		characters:      characters,
		oracle:          oracle,
		defaultLanguage: defaultLanguage,
		logger:          utils.GetLogger(),
	}
}

// CreateEvent 运行完整的事件生成流程并持久化结果
// observer可为nil；非nil时在每个回合生成后被调用
func (s *EventService) CreateEvent(ctx context.Context, req *EventCreateRequest, observer engine.TurnObserver) (*models.EventResult, error) {
	config := req.toConfig(s.defaultLanguage)

	if err := config.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), nil)
	}

	characterA, err := s.characters.GetCharacter(config.CharacterAID)
	if err != nil {
		return nil, err
	}
	characterB, err := s.characters.GetCharacter(config.CharacterBID)
	if err != nil {
		return nil, err
	}

	state := engine.NewEventState(config, characterA, characterB)

	eng := engine.NewEngine(s.oracle)
	if observer != nil {
		eng.SetTurnObserver(observer)
	}

	start := time.Now()
	transcript, err := eng.GenerateTranscript(ctx, state)
	if err != nil {
		return nil, errors.WrapError(err, "事件生成失败", errors.ErrorTypeGeneration)
	}
	elapsed := time.Since(start)

	result := models.NewEventResult(config, transcript, elapsed)

	if err := s.storage.SaveJSONFile(eventsDir, result.ID+".json", result); err != nil {
		return nil, errors.NewInternalError("保存事件失败", err)
	}

	s.logger.Info("事件已生成", map[string]interface{}{
		"id":         result.ID,
		"event_type": config.EventType,
		"turns":      len(transcript.Turns),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return result, nil
}

// GetEvent 按ID加载事件结果
func (s *EventService) GetEvent(eventID string) (*models.EventResult, error) {
	if eventID == "" {
		return nil, errors.NewValidationError("事件ID不能为空", nil)
	}

	if !s.storage.FileExists(eventsDir, eventID+".json") {
		return nil, errors.NewNotFoundError(fmt.Sprintf("事件不存在: %s", eventID), nil)
	}

	var result models.EventResult
	if err := s.storage.LoadJSONFile(eventsDir, eventID+".json", &result); err != nil {
		return nil, errors.NewInternalError("读取事件失败", err)
	}

	return &result, nil
}

// ListEvents 列出事件，按生成时间倒序
// characterID非空时只返回该角色参与的事件
func (s *EventService) ListEvents(characterID string) ([]*models.EventResult, error) {
	ids, err := s.storage.ListJSONFiles(eventsDir)
	if err != nil {
		return nil, errors.NewInternalError("列出事件失败", err)
	}

	events := make([]*models.EventResult, 0, len(ids))
	for _, id := range ids {
		var result models.EventResult
		if err := s.storage.LoadJSONFile(eventsDir, id+".json", &result); err != nil {
			s.logger.Warn("跳过无法读取的事件文件", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
			continue
		}
		if characterID != "" && !result.InvolvesCharacter(characterID) {
			continue
		}
		events = append(events, &result)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].GeneratedAt.After(events[j].GeneratedAt)
	})

	return events, nil
}

// DeleteEvent 删除事件
func (s *EventService) DeleteEvent(eventID string) error {
	if eventID == "" {
		return errors.NewValidationError("事件ID不能为空", nil)
	}

	if !s.storage.FileExists(eventsDir, eventID+".json") {
		return errors.NewNotFoundError(fmt.Sprintf("事件不存在: %s", eventID), nil)
	}

	if err := s.storage.DeleteFile(eventsDir, eventID+".json"); err != nil {
		return errors.NewInternalError("删除事件失败", err)
	}

	return nil
}
