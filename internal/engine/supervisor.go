// internal/engine/supervisor.go
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

// Decision 监督者对事件流程的裁决
// ShouldContinue与情绪在Evaluate中经过边界规则修正后才可写入状态
type Decision struct {
	ShouldContinue bool        `json:"should_continue"`
	NextSpeaker    Speaker     `json:"next_speaker"`
	CharacterAMood models.Mood `json:"character_a_mood"`
	CharacterBMood models.Mood `json:"character_b_mood"`
	EndReason      string      `json:"end_reason"`
}

// Supervisor 控制事件流程：是否继续、下一个发言方、情绪演变
type Supervisor struct {
	oracle Oracle
	logger *utils.Logger
}

// NewSupervisor 创建流程监督者
func NewSupervisor(oracle Oracle) *Supervisor {
	return &Supervisor{
		oracle: oracle,
		logger: utils.GetLogger(),
	}
}

// Evaluate 咨询监督者并应用强制性边界规则
// 规则优先级（高到低）：
//  1. 回合数未达到最小值时强制继续
//  2. 回合数达到最大值时强制结束
//  3. 其余情况采纳监督者的裁决
//  4. 结束时用配置的目标情绪覆盖裁决情绪
func (s *Supervisor) Evaluate(ctx context.Context, state *EventState) (*Decision, error) {
	prompt := s.buildPrompt(state)

	var decision Decision
	if err := s.oracle.CreateStructuredCompletion(ctx, prompt, supervisorSystemPrompt, &decision); err != nil {
		return nil, fmt.Errorf("监督者裁决失败: %w", err)
	}

	if err := validateDecision(&decision); err != nil {
		return nil, err
	}

	// 未达到最小回合数，强制继续
	if state.CurrentTurn < state.Config.MinInteractions {
		decision.ShouldContinue = true
	}

	// 达到最大回合数，强制结束
	if state.CurrentTurn >= state.Config.MaxInteractions {
		decision.ShouldContinue = false
	}

	// 结束时用目标情绪覆盖
	if !decision.ShouldContinue {
		if state.Config.CharacterATargetMood != "" {
			decision.CharacterAMood = state.Config.CharacterATargetMood
		}
		if state.Config.CharacterBTargetMood != "" {
			decision.CharacterBMood = state.Config.CharacterBTargetMood
		}
		if decision.EndReason != "" {
			s.logger.Info("事件结束", map[string]interface{}{
				"turn":   state.CurrentTurn,
				"reason": decision.EndReason,
			})
		}
	}

	return &decision, nil
}

// validateDecision 校验裁决是否符合模式
// next_speaker缺失时回退到character_a（与原模式的字段默认值一致）；
// 其余不符合封闭枚举的值是生成错误，不做静默替换
func validateDecision(d *Decision) error {
	if d.NextSpeaker == "" {
		d.NextSpeaker = SpeakerA
	} else if !d.NextSpeaker.IsValid() {
		return errors.NewGenerationError(fmt.Sprintf("监督者返回了非法的发言方: %q", d.NextSpeaker), nil)
	}
	if !d.CharacterAMood.IsValid() {
		return errors.NewGenerationError(fmt.Sprintf("监督者返回了非法的角色A情绪: %q", d.CharacterAMood), nil)
	}
	if !d.CharacterBMood.IsValid() {
		return errors.NewGenerationError(fmt.Sprintf("监督者返回了非法的角色B情绪: %q", d.CharacterBMood), nil)
	}
	return nil
}

// buildPrompt 构建监督者提示词
func (s *Supervisor) buildPrompt(state *EventState) string {
	// 最新回合单独呈现，历史不包含它
	var history []models.EventTurn
	latestTurnStr := ""
	if len(state.Turns) > 0 {
		latest := state.Turns[len(state.Turns)-1]
		history = state.Turns[:len(state.Turns)-1]

		var parts []string
		if latest.Dialogue != "" {
			parts = append(parts, fmt.Sprintf("Said: %q", latest.Dialogue))
		}
		if latest.Action != "" {
			parts = append(parts, fmt.Sprintf("Action: %s", latest.Action))
		}
		latestTurnStr = fmt.Sprintf("%s: %s", latest.SpeakerName, strings.Join(parts, " | "))
	}

	return fmt.Sprintf(supervisorPromptTemplate,
		state.Config.EventType,
		state.Config.Description,
		state.Config.Location,
		state.Config.MinInteractions,
		state.Config.MaxInteractions,
		state.CurrentTurn,
		state.CharacterA.Name,
		state.CharacterAMood,
		state.CharacterB.Name,
		state.CharacterBMood,
		s.targetMoodInstructions(state),
		FormatConversationHistory(history),
		latestTurnStr,
		state.Config.MinInteractions,
		state.Config.MaxInteractions,
	)
}

// targetMoodInstructions 构建目标情绪引导文案
func (s *Supervisor) targetMoodInstructions(state *EventState) string {
	var lines []string
	if state.Config.CharacterATargetMood != "" {
		lines = append(lines, fmt.Sprintf("- Character A (%s) should end up feeling %s",
			state.CharacterA.Name, state.Config.CharacterATargetMood))
	}
	if state.Config.CharacterBTargetMood != "" {
		lines = append(lines, fmt.Sprintf("- Character B (%s) should end up feeling %s",
			state.CharacterB.Name, state.Config.CharacterBTargetMood))
	}

	if len(lines) == 0 {
		return "No specific target moods set - let the moods evolve naturally based on the event type and interactions."
	}

	return "The event should guide characters toward these final moods:\n" +
		strings.Join(lines, "\n") +
		"\nGradually shift moods in this direction as the event progresses."
}
