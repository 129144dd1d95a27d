// internal/services/character_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

const charactersDir = "characters"

const characterSystemPrompt = `You are a creative writer for a fantasy farm village simulation game. Your task is to create detailed, believable characters that would inhabit a medieval fantasy farming village.

The village setting:
- A small, peaceful farming community in a fantasy world
- Magic exists but is rare and subtle
- The village has various trades: farmers, blacksmiths, herbalists, merchants, innkeepers
- There are nearby forests, mountains, and other villages for trade
- The community values hard work, honesty, and helping neighbors
- There are local traditions, festivals, and a small temple

Create characters that feel grounded and realistic within this setting. Give them:
- Authentic names fitting a medieval fantasy world
- Believable motivations and histories
- Flaws and virtues that make them human
- Connections to village life and its rhythms

Important guidelines:
- Stats should reflect the character's background (a blacksmith is strong, a scholar is intelligent)
- Appearances should match their occupation and lifestyle
- Secrets and fears should be subtle and realistic, not melodramatic`

const characterUserPromptTemplate = `Create a complete character profile for a newcomer arriving at the village.

%s

Generate a fully detailed character with all required attributes. Make the character feel like a real person with hopes, fears, and a past that shaped who they are today.

Return a JSON object with this exact structure:
{
  "name": "character name",
  "age": 25,
  "gender": "male|female",
  "appearance": {
    "height_cm": 175,
    "build": "slim|average|athletic|stocky|heavy",
    "hair_color": "...", "hair_style": "...", "eye_color": "...", "skin_tone": "...",
    "distinguishing_features": ["..."],
    "clothing_style": "..."
  },
  "personality": {
    "temperament": "choleric|sanguine|melancholic|phlegmatic",
    "positive_traits": ["..."], "negative_traits": ["..."],
    "quirks": ["..."], "values": ["..."], "fears": ["..."]
  },
  "backstory": {
    "origin_village": "...", "family_status": "...", "parents_occupation": "...",
    "reason_for_arrival": "...",
    "life_events": [{"age_at_event": 12, "description": "..."}],
    "secrets": ["..."]
  },
  "skills": {
    "occupation": "...", "primary_skills": ["..."], "secondary_skills": ["..."],
    "stats": {"strength": 5, "dexterity": 5, "constitution": 5, "intelligence": 5, "wisdom": 5, "charisma": 5},
    "special_talent": "..."
  },
  "portrait_description": "..."
}`

// CharacterService 管理角色的生成与持久化
type CharacterService struct {
	storage *storage.FileStorage
	llm     *LLMService
	logger  *utils.Logger
}

// NewCharacterService 创建角色服务
func NewCharacterService(fs *storage.FileStorage, llm *LLMService) *CharacterService {
	return &CharacterService{
		storage: fs,
		llm:     llm,
		logger:  utils.GetLogger(),
	}
}

// GenerateCharacter 使用LLM生成一个新角色并保存
// description为空时生成随机村民
func (s *CharacterService) GenerateCharacter(ctx context.Context, description string) (*models.Character, error) {
	if s.llm == nil || !s.llm.IsReady() {
		return nil, errors.NewGenerationError("LLM服务未就绪，无法生成角色", nil)
	}

	descriptionSection := "No specific concept provided - create a random villager with an interesting but believable background."
	if description != "" {
		descriptionSection = "Character concept: " + description
	}

	prompt := fmt.Sprintf(characterUserPromptTemplate, descriptionSection)

	var character models.Character
	if err := s.llm.CreateStructuredCompletion(ctx, prompt, characterSystemPrompt, &character); err != nil {
		return nil, errors.WrapError(err, "生成角色失败", errors.ErrorTypeGeneration)
	}

	if character.Name == "" {
		return nil, errors.NewGenerationError("生成的角色缺少名字", nil)
	}

	character.ID = uuid.NewString()
	character.CreatedAt = time.Now()

	if err := s.storage.SaveJSONFile(charactersDir, character.ID+".json", &character); err != nil {
		return nil, errors.NewInternalError("保存角色失败", err)
	}

	s.logger.Info("角色已生成", map[string]interface{}{
		"id":   character.ID,
		"name": character.Name,
	})

	return &character, nil
}

// GetCharacter 按ID加载角色
func (s *CharacterService) GetCharacter(characterID string) (*models.Character, error) {
	if characterID == "" {
		return nil, errors.NewValidationError("角色ID不能为空", nil)
	}

	if !s.storage.FileExists(charactersDir, characterID+".json") {
		return nil, errors.NewNotFoundError(fmt.Sprintf("角色不存在: %s", characterID), nil)
	}

	var character models.Character
	if err := s.storage.LoadJSONFile(charactersDir, characterID+".json", &character); err != nil {
		return nil, errors.NewInternalError("读取角色失败", err)
	}

	return &character, nil
}

// ListCharacters 列出所有角色，按创建时间倒序
func (s *CharacterService) ListCharacters() ([]*models.Character, error) {
	ids, err := s.storage.ListJSONFiles(charactersDir)
	if err != nil {
		return nil, errors.NewInternalError("列出角色失败", err)
	}

	characters := make([]*models.Character, 0, len(ids))
	for _, id := range ids {
		var character models.Character
		if err := s.storage.LoadJSONFile(charactersDir, id+".json", &character); err != nil {
			s.logger.Warn("跳过无法读取的角色文件", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
			continue
		}
		characters = append(characters, &character)
	}

	sort.Slice(characters, func(i, j int) bool {
		return characters[i].CreatedAt.After(characters[j].CreatedAt)
	})

	return characters, nil
}

// DeleteCharacter 删除角色
func (s *CharacterService) DeleteCharacter(characterID string) error {
	if characterID == "" {
		return errors.NewValidationError("角色ID不能为空", nil)
	}

	if !s.storage.FileExists(charactersDir, characterID+".json") {
		return errors.NewNotFoundError(fmt.Sprintf("角色不存在: %s", characterID), nil)
	}

	if err := s.storage.DeleteFile(charactersDir, characterID+".json"); err != nil {
		return errors.NewInternalError("删除角色失败", err)
	}

	return nil
}
