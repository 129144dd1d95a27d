// internal/engine/state.go
package engine

import (
	"fmt"
	"strings"

	"github.com/Corphon/FarmVillageMCP/internal/models"
)

// Speaker 标识事件中的发言方
type Speaker string

const (
	SpeakerA Speaker = "character_a"
	SpeakerB Speaker = "character_b"
)

// IsValid 检查发言方标识是否合法
func (s Speaker) IsValid() bool {
	return s == SpeakerA || s == SpeakerB
}

// Other 返回另一个发言方
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}

// EventState 事件状态机的可变状态
// 每次运行创建一个新实例，只由状态机自己修改
type EventState struct {
	Config     models.EventConfig
	CharacterA *models.Character
	CharacterB *models.Character

	CurrentTurn    int
	CurrentSpeaker Speaker
	CharacterAMood models.Mood
	CharacterBMood models.Mood

	Turns []models.EventTurn

	ShouldEnd bool
}

// NewEventState 根据配置创建事件初始状态
// 初始情绪取自配置，回合计数从0开始
func NewEventState(config models.EventConfig, characterA, characterB *models.Character) *EventState {
	return &EventState{
		Config:         config,
		CharacterA:     characterA,
		CharacterB:     characterB,
		CurrentTurn:    0,
		CurrentSpeaker: SpeakerA,
		CharacterAMood: config.CharacterAMood,
		CharacterBMood: config.CharacterBMood,
	}
}

// speakerCharacter 返回指定发言方对应的角色和当前情绪
func (s *EventState) speakerCharacter(speaker Speaker) (*models.Character, models.Mood) {
	if speaker == SpeakerA {
		return s.CharacterA, s.CharacterAMood
	}
	return s.CharacterB, s.CharacterBMood
}

// RemainingInteractions 还需多少回合才允许结束
func (s *EventState) RemainingInteractions() int {
	remaining := s.Config.MinInteractions - s.CurrentTurn
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AppendTurn 记录一个新回合并推进回合计数
func (s *EventState) AppendTurn(turn models.EventTurn) {
	s.Turns = append(s.Turns, turn)
	s.CurrentTurn = turn.TurnNumber
}

// ApplyDecision 把监督者的最终裁决写入状态
// 裁决必须已经过Evaluate的边界规则处理
func (s *EventState) ApplyDecision(d *Decision) {
	s.ShouldEnd = !d.ShouldContinue
	s.CurrentSpeaker = d.NextSpeaker
	s.CharacterAMood = d.CharacterAMood
	s.CharacterBMood = d.CharacterBMood
}

// formatTurn 把单个回合格式化为转录行的内容部分
func formatTurn(turn models.EventTurn) string {
	var parts []string
	if turn.Dialogue != "" {
		parts = append(parts, fmt.Sprintf("%q", turn.Dialogue))
	}
	if turn.Action != "" {
		parts = append(parts, fmt.Sprintf("*%s*", turn.Action))
	}
	if len(parts) == 0 {
		return "(no response)"
	}
	return strings.Join(parts, " ")
}

// FormatConversationHistory 把回合序列格式化为提示词中的对话历史
func FormatConversationHistory(turns []models.EventTurn) string {
	if len(turns) == 0 {
		return "(No conversation yet - this is the first turn)"
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("Turn %d - %s (%s): %s",
			turn.TurnNumber, turn.SpeakerName, turn.Mood, formatTurn(turn)))
	}

	return strings.Join(lines, "\n")
}
