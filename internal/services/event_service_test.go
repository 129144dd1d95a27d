// internal/services/event_service_test.go
package services

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/Corphon/FarmVillageMCP/internal/engine"
	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
)

// scriptedOracle 为事件服务测试提供确定性的LLM行为
// 监督者总是投票继续并交替发言方，由引擎的边界规则在最大回合数强制结束
type scriptedOracle struct {
	decisionCount int
}

func (o *scriptedOracle) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, outputSchema interface{}) error {
	switch v := outputSchema.(type) {
	case *engine.Decision:
		speaker := engine.SpeakerA
		if o.decisionCount%2 == 1 {
			speaker = engine.SpeakerB
		}
		o.decisionCount++
		*v = engine.Decision{
			ShouldContinue: true,
			NextSpeaker:    speaker,
			CharacterAMood: models.MoodNeutral,
			CharacterBMood: models.MoodNeutral,
		}
		return nil

	case *engine.EventSummary:
		v.Summary = "The two villagers talked briefly."
		v.Outcome = "They went their separate ways."
		return nil

	default:
		// 角色回合
		return json.Unmarshal([]byte(`{"dialogue": "a few words", "action": "nods"}`), outputSchema)
	}
}

func setupEventService(t *testing.T) (*EventService, *storage.FileStorage) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "event_service_test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	fs, err := storage.NewFileStorage(tempDir)
	if err != nil {
		t.Fatalf("创建存储服务失败: %v", err)
	}

	llmService, err := NewLLMService(nil)
	if err != nil {
		t.Fatalf("创建LLM服务失败: %v", err)
	}

	characterService := NewCharacterService(fs, llmService)
	eventService := NewEventService(fs, characterService, &scriptedOracle{}, "english")

	return eventService, fs
}

func saveTestCharacter(t *testing.T, fs *storage.FileStorage, id, name string) {
	t.Helper()

	character := models.Character{
		ID:   id,
		Name: name,
		Age:  30,
		Personality: models.Personality{
			Temperament:    models.TemperamentPhlegmatic,
			PositiveTraits: []string{"patient"},
			NegativeTraits: []string{"passive"},
			Values:         []string{"peace"},
		},
		Skills: models.Skills{Occupation: "farmer"},
	}

	if err := fs.SaveJSONFile(charactersDir, id+".json", &character); err != nil {
		t.Fatalf("保存测试角色失败: %v", err)
	}
}

func makeCreateRequest(aID, bID string) *EventCreateRequest {
	return &EventCreateRequest{
		Description:     "A quiet conversation at dusk",
		EventType:       models.EventGossip,
		Location:        "the village well",
		MinInteractions: 2,
		MaxInteractions: 2,
		CharacterAID:    aID,
		CharacterBID:    bID,
	}
}

func TestCreateEventFullFlow(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "villager-a", "Aldric")
	saveTestCharacter(t, fs, "villager-b", "Mira")

	result, err := service.CreateEvent(context.Background(), makeCreateRequest("villager-a", "villager-b"), nil)
	if err != nil {
		t.Fatalf("创建事件失败: %v", err)
	}

	if result.ID == "" {
		t.Error("事件结果应分配ID")
	}
	if len(result.Transcript.Turns) != 2 {
		t.Fatalf("期望2个回合，得到%d", len(result.Transcript.Turns))
	}
	if result.Transcript.Summary == "" || result.Transcript.Outcome == "" {
		t.Error("转录应包含总结和结局")
	}

	// 发言方交替
	if result.Transcript.Turns[0].SpeakerID != "villager-a" || result.Transcript.Turns[1].SpeakerID != "villager-b" {
		t.Errorf("发言方顺序错误: %s, %s",
			result.Transcript.Turns[0].SpeakerID, result.Transcript.Turns[1].SpeakerID)
	}

	// 结果已持久化
	loaded, err := service.GetEvent(result.ID)
	if err != nil {
		t.Fatalf("读取已保存的事件失败: %v", err)
	}
	if loaded.ID != result.ID || len(loaded.Transcript.Turns) != 2 {
		t.Error("持久化的事件与返回的结果不一致")
	}
}

func TestCreateEventRequestDefaults(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "a1", "Aldric")
	saveTestCharacter(t, fs, "b1", "Mira")

	req := makeCreateRequest("a1", "b1")
	req.Language = ""
	req.CharacterAMood = ""
	req.CharacterBMood = ""

	result, err := service.CreateEvent(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("创建事件失败: %v", err)
	}

	if result.Config.Language != "english" {
		t.Errorf("应使用服务的默认语言: %s", result.Config.Language)
	}
	if result.Config.CharacterAMood != models.MoodNeutral {
		t.Errorf("未指定的初始情绪应默认为neutral: %s", result.Config.CharacterAMood)
	}
}

func TestCreateEventUnknownCharacter(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "only-a", "Aldric")

	_, err := service.CreateEvent(context.Background(), makeCreateRequest("only-a", "ghost"), nil)
	if err == nil {
		t.Fatal("不存在的角色应导致错误")
	}
	if !errors.IsNotFoundError(err) {
		t.Errorf("应为NotFound错误: %v", err)
	}
}

func TestCreateEventInvalidConfig(t *testing.T) {
	service, _ := setupEventService(t)

	req := makeCreateRequest("same", "same")
	_, err := service.CreateEvent(context.Background(), req, nil)
	if err == nil {
		t.Fatal("相同的角色应被拒绝")
	}
	if !errors.IsValidationError(err) {
		t.Errorf("应为Validation错误: %v", err)
	}
}

func TestListEventsFilter(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "pa", "Aldric")
	saveTestCharacter(t, fs, "pb", "Mira")
	saveTestCharacter(t, fs, "pc", "Tomas")

	first, err := service.CreateEvent(context.Background(), makeCreateRequest("pa", "pb"), nil)
	if err != nil {
		t.Fatalf("创建第一个事件失败: %v", err)
	}
	second, err := service.CreateEvent(context.Background(), makeCreateRequest("pa", "pc"), nil)
	if err != nil {
		t.Fatalf("创建第二个事件失败: %v", err)
	}

	all, err := service.ListEvents("")
	if err != nil {
		t.Fatalf("列出事件失败: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("期望2个事件，得到%d", len(all))
	}

	// 按生成时间倒序
	if all[0].ID != second.ID {
		t.Errorf("最新的事件应排在最前: %s", all[0].ID)
	}

	// 按参与者过滤
	filtered, err := service.ListEvents("pc")
	if err != nil {
		t.Fatalf("过滤事件失败: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != second.ID {
		t.Errorf("过滤结果错误: %v", filtered)
	}

	filtered, err = service.ListEvents("pa")
	if err != nil {
		t.Fatalf("过滤事件失败: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("角色pa参与了两个事件，得到%d", len(filtered))
	}

	_ = first
}

func TestDeleteEvent(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "da", "Aldric")
	saveTestCharacter(t, fs, "db", "Mira")

	result, err := service.CreateEvent(context.Background(), makeCreateRequest("da", "db"), nil)
	if err != nil {
		t.Fatalf("创建事件失败: %v", err)
	}

	if err := service.DeleteEvent(result.ID); err != nil {
		t.Fatalf("删除事件失败: %v", err)
	}

	if _, err := service.GetEvent(result.ID); !errors.IsNotFoundError(err) {
		t.Errorf("已删除的事件应返回NotFound: %v", err)
	}

	if err := service.DeleteEvent(result.ID); !errors.IsNotFoundError(err) {
		t.Errorf("重复删除应返回NotFound: %v", err)
	}
}

// failingOracle 在角色回合调用时失败
type failingOracle struct{}

func (o *failingOracle) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, outputSchema interface{}) error {
	if v, ok := outputSchema.(*engine.Decision); ok {
		*v = engine.Decision{
			ShouldContinue: true,
			NextSpeaker:    engine.SpeakerA,
			CharacterAMood: models.MoodNeutral,
			CharacterBMood: models.MoodNeutral,
		}
		return nil
	}
	return errors.NewGenerationError("模拟的LLM故障", nil)
}

func TestCreateEventFailureNotPersisted(t *testing.T) {
	service, fs := setupEventService(t)
	saveTestCharacter(t, fs, "fa", "Aldric")
	saveTestCharacter(t, fs, "fb", "Mira")

	service.oracle = &failingOracle{}

	_, err := service.CreateEvent(context.Background(), makeCreateRequest("fa", "fb"), nil)
	if err == nil {
		t.Fatal("回合生成失败时CreateEvent应返回错误")
	}
	if !errors.IsGenerationError(err) {
		t.Errorf("应为Generation错误: %v", err)
	}

	// 失败的运行不持久化
	events, listErr := service.ListEvents("")
	if listErr != nil {
		t.Fatalf("列出事件失败: %v", listErr)
	}
	if len(events) != 0 {
		t.Errorf("失败的事件不应被保存: %d", len(events))
	}
}

func TestGetEventNotFound(t *testing.T) {
	service, _ := setupEventService(t)

	if _, err := service.GetEvent("missing"); !errors.IsNotFoundError(err) {
		t.Errorf("不存在的事件应返回NotFound: %v", err)
	}
}
