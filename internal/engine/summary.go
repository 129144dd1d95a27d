// internal/engine/summary.go
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
)

// EventSummary 事件的结构化总结
type EventSummary struct {
	Summary string `json:"summary"`
	Outcome string `json:"outcome"`
}

// Summarizer 在事件结束后生成叙事总结
type Summarizer struct {
	oracle Oracle
}

// NewSummarizer 创建总结生成器
func NewSummarizer(oracle Oracle) *Summarizer {
	return &Summarizer{oracle: oracle}
}

// Summarize 为已完成的事件生成总结与结局
func (s *Summarizer) Summarize(ctx context.Context, state *EventState) (*EventSummary, error) {
	transcriptLines := make([]string, 0, len(state.Turns))
	for _, turn := range state.Turns {
		transcriptLines = append(transcriptLines, fmt.Sprintf("%s: %s", turn.SpeakerName, formatTurn(turn)))
	}

	prompt := fmt.Sprintf(summaryPromptTemplate,
		state.Config.EventType,
		state.Config.Location,
		state.Config.Description,
		state.CharacterA.Name,
		state.Config.CharacterAMood,
		state.CharacterAMood,
		state.CharacterB.Name,
		state.Config.CharacterBMood,
		state.CharacterBMood,
		strings.Join(transcriptLines, "\n"),
		state.Config.Language,
		state.Config.Language,
	)

	var summary EventSummary
	if err := s.oracle.CreateStructuredCompletion(ctx, prompt, summarySystemPrompt, &summary); err != nil {
		return nil, fmt.Errorf("生成事件总结失败: %w", err)
	}

	// summary和outcome都是必需字段
	if summary.Summary == "" || summary.Outcome == "" {
		return nil, errors.NewGenerationError("事件总结缺少summary或outcome字段", nil)
	}

	return &summary, nil
}

// BuildTranscript 把最终状态与总结组装为事件转录
func BuildTranscript(state *EventState, summary *EventSummary) models.EventTranscript {
	return models.EventTranscript{
		Turns:               state.Turns,
		Summary:             summary.Summary,
		Outcome:             summary.Outcome,
		CharacterAFinalMood: state.CharacterAMood,
		CharacterBFinalMood: state.CharacterBMood,
	}
}
