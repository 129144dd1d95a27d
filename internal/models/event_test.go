// internal/models/event_test.go
package models

import (
	"testing"
	"time"
)

func validConfig() EventConfig {
	return EventConfig{
		Description:     "A trade negotiation over winter supplies",
		EventType:       EventTrade,
		Location:        "the market stalls",
		MinInteractions: 2,
		MaxInteractions: 6,
		CharacterAID:    "id-a",
		CharacterBID:    "id-b",
		CharacterAMood:  MoodNeutral,
		CharacterBMood:  MoodConfident,
		Language:        "english",
	}
}

func TestEventConfigValidate(t *testing.T) {
	config := validConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}
}

func TestEventConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EventConfig)
	}{
		{"未知事件类型", func(c *EventConfig) { c.EventType = "duel" }},
		{"缺少角色A", func(c *EventConfig) { c.CharacterAID = "" }},
		{"缺少角色B", func(c *EventConfig) { c.CharacterBID = "" }},
		{"相同角色", func(c *EventConfig) { c.CharacterBID = c.CharacterAID }},
		{"min为0", func(c *EventConfig) { c.MinInteractions = 0 }},
		{"min超上限", func(c *EventConfig) { c.MinInteractions = 31; c.MaxInteractions = 31 }},
		{"max超上限", func(c *EventConfig) { c.MaxInteractions = 31 }},
		{"min大于max", func(c *EventConfig) { c.MinInteractions = 5; c.MaxInteractions = 3 }},
		{"非法初始情绪", func(c *EventConfig) { c.CharacterAMood = "furious" }},
		{"非法目标情绪", func(c *EventConfig) { c.CharacterBTargetMood = "ecstatic" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig()
			tc.mutate(&config)
			if err := config.Validate(); err == nil {
				t.Errorf("%s: 应被校验拒绝", tc.name)
			}
		})
	}
}

func TestEventConfigTargetMoodsOptional(t *testing.T) {
	config := validConfig()
	config.CharacterATargetMood = MoodGrateful
	// B的目标情绪留空

	if err := config.Validate(); err != nil {
		t.Fatalf("只设置一个目标情绪应合法: %v", err)
	}
}

func TestMoodIsValid(t *testing.T) {
	for _, mood := range []Mood{MoodAngry, MoodInLove, MoodNeutral, MoodJealous} {
		if !mood.IsValid() {
			t.Errorf("%s 应为合法情绪", mood)
		}
	}
	if Mood("content").IsValid() {
		t.Error("未知情绪不应合法")
	}
}

func TestEventTypeIsValid(t *testing.T) {
	for _, et := range []EventType{EventArgument, EventReconciliation, EventStealing} {
		if !et.IsValid() {
			t.Errorf("%s 应为合法事件类型", et)
		}
	}
	if EventType("").IsValid() {
		t.Error("空事件类型不应合法")
	}
}

func TestNewEventResult(t *testing.T) {
	config := validConfig()
	transcript := EventTranscript{
		Turns:               []EventTurn{{TurnNumber: 1, SpeakerID: "id-a", SpeakerName: "Aldric"}},
		Summary:             "A brief trade.",
		Outcome:             "Deal struck.",
		CharacterAFinalMood: MoodHappy,
		CharacterBFinalMood: MoodHappy,
	}

	result := NewEventResult(config, transcript, 1500*time.Millisecond)

	if result.ID == "" {
		t.Error("事件结果应分配ID")
	}
	if result.GenerationTimeMS != 1500 {
		t.Errorf("生成耗时记录错误: %d", result.GenerationTimeMS)
	}
	if !result.InvolvesCharacter("id-a") || !result.InvolvesCharacter("id-b") {
		t.Error("参与者判断错误")
	}
	if result.InvolvesCharacter("id-c") {
		t.Error("非参与者不应匹配")
	}
}
