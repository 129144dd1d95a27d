// internal/services/character_service_test.go
package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Corphon/FarmVillageMCP/internal/errors"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/storage"
)

func setupCharacterService(t *testing.T) (*CharacterService, *storage.FileStorage) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "character_service_test")
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

	return NewCharacterService(fs, llmService), fs
}

func TestGetCharacter(t *testing.T) {
	service, fs := setupCharacterService(t)
	saveTestCharacter(t, fs, "hero", "Aldric")

	character, err := service.GetCharacter("hero")
	if err != nil {
		t.Fatalf("读取角色失败: %v", err)
	}
	if character.Name != "Aldric" {
		t.Errorf("角色名字错误: %s", character.Name)
	}
}

func TestGetCharacterNotFound(t *testing.T) {
	service, _ := setupCharacterService(t)

	if _, err := service.GetCharacter("nobody"); !errors.IsNotFoundError(err) {
		t.Errorf("不存在的角色应返回NotFound: %v", err)
	}
	if _, err := service.GetCharacter(""); !errors.IsValidationError(err) {
		t.Errorf("空ID应返回Validation错误: %v", err)
	}
}

func TestListCharactersSorted(t *testing.T) {
	service, fs := setupCharacterService(t)

	older := models.Character{ID: "old", Name: "Old", CreatedAt: time.Now().Add(-time.Hour)}
	newer := models.Character{ID: "new", Name: "New", CreatedAt: time.Now()}
	if err := fs.SaveJSONFile(charactersDir, "old.json", &older); err != nil {
		t.Fatalf("保存角色失败: %v", err)
	}
	if err := fs.SaveJSONFile(charactersDir, "new.json", &newer); err != nil {
		t.Fatalf("保存角色失败: %v", err)
	}

	characters, err := service.ListCharacters()
	if err != nil {
		t.Fatalf("列出角色失败: %v", err)
	}
	if len(characters) != 2 {
		t.Fatalf("期望2个角色，得到%d", len(characters))
	}
	if characters[0].ID != "new" {
		t.Errorf("最新创建的角色应排在最前: %s", characters[0].ID)
	}
}

func TestDeleteCharacter(t *testing.T) {
	service, fs := setupCharacterService(t)
	saveTestCharacter(t, fs, "gone", "Tomas")

	if err := service.DeleteCharacter("gone"); err != nil {
		t.Fatalf("删除角色失败: %v", err)
	}

	if _, err := service.GetCharacter("gone"); !errors.IsNotFoundError(err) {
		t.Errorf("已删除的角色应返回NotFound: %v", err)
	}

	if err := service.DeleteCharacter("gone"); !errors.IsNotFoundError(err) {
		t.Errorf("重复删除应返回NotFound: %v", err)
	}
}

func TestGenerateCharacterRequiresLLM(t *testing.T) {
	service, _ := setupCharacterService(t)

	// 未配置API密钥，LLM服务不可用
	if _, err := service.GenerateCharacter(context.Background(), "a blacksmith"); !errors.IsGenerationError(err) {
		t.Errorf("LLM未就绪时应返回Generation错误: %v", err)
	}
}
