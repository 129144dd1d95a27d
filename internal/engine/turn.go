// internal/engine/turn.go
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/FarmVillageMCP/internal/models"
)

// characterResponse 角色回合的结构化输出
// dialogue和action都可以为空，但一般至少有一个
type characterResponse struct {
	Dialogue string `json:"dialogue"`
	Action   string `json:"action"`
}

// TurnGenerator 根据事件状态生成单个角色回合
type TurnGenerator struct {
	oracle Oracle
}

// NewTurnGenerator 创建回合生成器
func NewTurnGenerator(oracle Oracle) *TurnGenerator {
	return &TurnGenerator{oracle: oracle}
}

// GenerateTurn 为指定发言方生成下一个回合
// 回合编号为 state.CurrentTurn+1，不修改状态本身
func (g *TurnGenerator) GenerateTurn(ctx context.Context, state *EventState, speaker Speaker) (models.EventTurn, error) {
	character, mood := state.speakerCharacter(speaker)
	other, otherMood := state.speakerCharacter(speaker.Other())

	prompt := fmt.Sprintf(characterTurnPromptTemplate,
		character.Name,
		character.Skills.Occupation,
		character.Name,
		character.Age,
		character.Personality.Temperament,
		strings.Join(character.Personality.PositiveTraits, ", "),
		strings.Join(character.Personality.NegativeTraits, ", "),
		strings.Join(character.Personality.Values, ", "),
		state.Config.EventType,
		state.Config.Description,
		state.Config.Location,
		mood,
		other.Name,
		other.Skills.Occupation,
		otherMood,
		FormatConversationHistory(state.Turns),
		state.CurrentTurn+1,
		state.RemainingInteractions(),
		state.Config.Language,
		character.Name,
		state.Config.Language,
	)

	var response characterResponse
	if err := g.oracle.CreateStructuredCompletion(ctx, prompt, eventSystemPrompt, &response); err != nil {
		return models.EventTurn{}, fmt.Errorf("生成角色回合失败(%s): %w", character.Name, err)
	}

	return models.EventTurn{
		TurnNumber:            state.CurrentTurn + 1,
		SpeakerID:             character.ID,
		SpeakerName:           character.Name,
		Dialogue:              response.Dialogue,
		Action:                response.Action,
		Mood:                  mood,
		RemainingInteractions: state.RemainingInteractions(),
	}, nil
}
