// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/FarmVillageMCP/internal/di"
	"github.com/Corphon/FarmVillageMCP/internal/engine"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/services"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
)

// testOracle 为API测试提供确定性的事件生成
type testOracle struct {
	decisionCount int
}

func (o *testOracle) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, outputSchema interface{}) error {
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
		v.Summary = "A short exchange."
		v.Outcome = "Nothing changed."
		return nil
	default:
		return json.Unmarshal([]byte(`{"dialogue": "well met"}`), outputSchema)
	}
}

func setupTestRouter(t *testing.T) (*gin.Engine, *storage.FileStorage) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "api_test")
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

	llmService, err := services.NewLLMService(nil)
	if err != nil {
		t.Fatalf("创建LLM服务失败: %v", err)
	}

	characterService := services.NewCharacterService(fs, llmService)
	eventService := services.NewEventService(fs, characterService, &testOracle{}, "english")

	container := di.NewContainer()
	container.Register("llm", llmService)
	container.Register("character", characterService)
	container.Register("event", eventService)

	return SetupRouter(container), fs
}

func saveCharacter(t *testing.T, fs *storage.FileStorage, id, name string) {
	t.Helper()

	character := models.Character{
		ID:     id,
		Name:   name,
		Age:    25,
		Skills: models.Skills{Occupation: "farmer"},
	}
	if err := fs.SaveJSONFile("characters", id+".json", &character); err != nil {
		t.Fatalf("保存测试角色失败: %v", err)
	}
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v: %s", err, w.Body.String())
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("健康检查应返回200，得到%d", w.Code)
	}

	resp := parseResponse(t, w)
	if !resp.Success {
		t.Error("健康检查应返回success=true")
	}
}

func TestListCharactersEmpty(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/characters", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("列出角色应返回200，得到%d", w.Code)
	}
}

func TestGetCharacterNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/characters/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("不存在的角色应返回404，得到%d", w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Success || resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("错误响应格式错误: %+v", resp)
	}
}

func TestCreateEventEndToEnd(t *testing.T) {
	router, fs := setupTestRouter(t)
	saveCharacter(t, fs, "api-a", "Aldric")
	saveCharacter(t, fs, "api-b", "Mira")

	body := map[string]interface{}{
		"description":      "A chance meeting on the road",
		"event_type":       "help",
		"location":         "the north road",
		"min_interactions": 2,
		"max_interactions": 2,
		"character_a_id":   "api-a",
		"character_b_id":   "api-b",
	}

	w := doRequest(router, http.MethodPost, "/api/events", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("创建事件应返回201，得到%d: %s", w.Code, w.Body.String())
	}

	resp := parseResponse(t, w)
	if !resp.Success {
		t.Fatalf("创建事件应成功: %+v", resp.Error)
	}

	// 事件应出现在列表中
	w = doRequest(router, http.MethodGet, "/api/events?character_id=api-a", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("列出事件应返回200，得到%d", w.Code)
	}
}

func TestCreateEventValidationError(t *testing.T) {
	router, fs := setupTestRouter(t)
	saveCharacter(t, fs, "dup", "Aldric")

	body := map[string]interface{}{
		"description":    "Talking to oneself",
		"event_type":     "gossip",
		"location":       "the mirror",
		"character_a_id": "dup",
		"character_b_id": "dup",
	}

	w := doRequest(router, http.MethodPost, "/api/events", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("非法配置应返回400，得到%d", w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("错误代码应为VALIDATION_ERROR: %+v", resp.Error)
	}
}

func TestCreateEventMalformedBody(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("格式错误的请求体应返回400，得到%d", w.Code)
	}
}

func TestLLMStatus(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/llm/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("LLM状态应返回200，得到%d", w.Code)
	}
}

func TestGenerateCharacterWithoutLLM(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/characters", map[string]string{
		"description": "a wandering bard",
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("LLM未就绪时生成角色应返回502，得到%d", w.Code)
	}
}
