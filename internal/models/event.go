// internal/models/event.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType 角色之间可能发生的事件类型
type EventType string

const (
	EventArgument       EventType = "argument"
	EventFight          EventType = "fight"
	EventStealing       EventType = "stealing"
	EventRomance        EventType = "romance"
	EventTrade          EventType = "trade"
	EventGossip         EventType = "gossip"
	EventHelp           EventType = "help"
	EventCelebration    EventType = "celebration"
	EventConfrontation  EventType = "confrontation"
	EventReconciliation EventType = "reconciliation"
)

var eventTypes = map[EventType]bool{
	EventArgument:       true,
	EventFight:          true,
	EventStealing:       true,
	EventRomance:        true,
	EventTrade:          true,
	EventGossip:         true,
	EventHelp:           true,
	EventCelebration:    true,
	EventConfrontation:  true,
	EventReconciliation: true,
}

// IsValid 检查事件类型是否为已知类型
func (t EventType) IsValid() bool {
	return eventTypes[t]
}

// Mood 事件过程中角色的情绪状态
type Mood string

const (
	MoodAngry      Mood = "angry"
	MoodScared     Mood = "scared"
	MoodInLove     Mood = "in_love"
	MoodHappy      Mood = "happy"
	MoodSad        Mood = "sad"
	MoodNervous    Mood = "nervous"
	MoodConfident  Mood = "confident"
	MoodSuspicious Mood = "suspicious"
	MoodGrateful   Mood = "grateful"
	MoodJealous    Mood = "jealous"
	MoodNeutral    Mood = "neutral"
)

var moods = map[Mood]bool{
	MoodAngry:      true,
	MoodScared:     true,
	MoodInLove:     true,
	MoodHappy:      true,
	MoodSad:        true,
	MoodNervous:    true,
	MoodConfident:  true,
	MoodSuspicious: true,
	MoodGrateful:   true,
	MoodJealous:    true,
	MoodNeutral:    true,
}

// IsValid 检查情绪是否属于封闭枚举
func (m Mood) IsValid() bool {
	return moods[m]
}

// 互动轮数的硬边界
const (
	MinInteractionBound = 1
	MaxInteractionBound = 30
)

// EventConfig 两个角色之间事件的完整配置
// 由调用方一次性创建，运行期间不可变
type EventConfig struct {
	Description     string    `json:"description"`
	EventType       EventType `json:"event_type"`
	Location        string    `json:"location"`
	Timestamp       time.Time `json:"timestamp"`
	MinInteractions int       `json:"min_interactions"`
	MaxInteractions int       `json:"max_interactions"`
	CharacterAID    string    `json:"character_a_id"`
	CharacterBID    string    `json:"character_b_id"`
	CharacterAMood  Mood      `json:"character_a_mood"`
	CharacterBMood  Mood      `json:"character_b_mood"`

	// 可选的目标最终情绪，引导叙事走向
	CharacterATargetMood Mood `json:"character_a_target_mood,omitempty"`
	CharacterBTargetMood Mood `json:"character_b_target_mood,omitempty"`

	// 生成对话和动作使用的语言
	Language string `json:"language"`
}

// Validate 在事件运行前校验配置
// 违反约束的配置必须在进入状态机之前被拒绝
func (c *EventConfig) Validate() error {
	if !c.EventType.IsValid() {
		return fmt.Errorf("未知的事件类型: %q", c.EventType)
	}
	if c.CharacterAID == "" || c.CharacterBID == "" {
		return fmt.Errorf("必须指定两个角色的ID")
	}
	if c.CharacterAID == c.CharacterBID {
		return fmt.Errorf("两个角色不能是同一个: %s", c.CharacterAID)
	}
	if c.MinInteractions < MinInteractionBound || c.MinInteractions > MaxInteractionBound {
		return fmt.Errorf("min_interactions 超出范围 [%d, %d]: %d",
			MinInteractionBound, MaxInteractionBound, c.MinInteractions)
	}
	if c.MaxInteractions < MinInteractionBound || c.MaxInteractions > MaxInteractionBound {
		return fmt.Errorf("max_interactions 超出范围 [%d, %d]: %d",
			MinInteractionBound, MaxInteractionBound, c.MaxInteractions)
	}
	if c.MinInteractions > c.MaxInteractions {
		return fmt.Errorf("min_interactions(%d) 不能大于 max_interactions(%d)",
			c.MinInteractions, c.MaxInteractions)
	}
	if !c.CharacterAMood.IsValid() || !c.CharacterBMood.IsValid() {
		return fmt.Errorf("初始情绪无效: a=%q b=%q", c.CharacterAMood, c.CharacterBMood)
	}
	if c.CharacterATargetMood != "" && !c.CharacterATargetMood.IsValid() {
		return fmt.Errorf("角色A的目标情绪无效: %q", c.CharacterATargetMood)
	}
	if c.CharacterBTargetMood != "" && !c.CharacterBTargetMood.IsValid() {
		return fmt.Errorf("角色B的目标情绪无效: %q", c.CharacterBTargetMood)
	}
	return nil
}

// EventTurn 事件互动中的单个回合
// 创建后不可变，按顺序追加到转录中
type EventTurn struct {
	TurnNumber            int    `json:"turn_number"` // 从1开始，严格递增
	SpeakerID             string `json:"speaker_id"`
	SpeakerName           string `json:"speaker_name"`
	Dialogue              string `json:"dialogue,omitempty"`
	Action                string `json:"action,omitempty"`
	Mood                  Mood   `json:"mood"` // 发言者在本回合的情绪
	RemainingInteractions int    `json:"remaining_interactions"`
}

// EventTranscript 事件完成后的最终转录
type EventTranscript struct {
	Turns               []EventTurn `json:"turns"`
	Summary             string      `json:"summary"`
	Outcome             string      `json:"outcome"`
	CharacterAFinalMood Mood        `json:"character_a_final_mood"`
	CharacterBFinalMood Mood        `json:"character_b_final_mood"`
}

// EventResult 事件生成的完整结果，包装配置与转录
// 这是唯一持久化的事件聚合
type EventResult struct {
	ID               string          `json:"id"`
	Config           EventConfig     `json:"config"`
	Transcript       EventTranscript `json:"transcript"`
	GeneratedAt      time.Time       `json:"generated_at"`
	GenerationTimeMS int64           `json:"generation_time_ms"`
}

// NewEventResult 创建带有新ID的事件结果
func NewEventResult(config EventConfig, transcript EventTranscript, elapsed time.Duration) *EventResult {
	return &EventResult{
		ID:               uuid.NewString(),
		Config:           config,
		Transcript:       transcript,
		GeneratedAt:      time.Now(),
		GenerationTimeMS: elapsed.Milliseconds(),
	}
}

// InvolvesCharacter 判断角色是否为事件参与者
func (r *EventResult) InvolvesCharacter(characterID string) bool {
	return r.Config.CharacterAID == characterID || r.Config.CharacterBID == characterID
}
