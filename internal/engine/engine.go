// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"

	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/utils"
)

// Oracle 事件引擎对LLM的唯一依赖
// 把提示词发送给模型并将JSON响应解析到outputSchema
type Oracle interface {
	CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, outputSchema interface{}) error
}

// TurnObserver 在每个回合生成后被调用，用于实时推送
// 回调在状态机的执行线程上同步执行
type TurnObserver func(turn models.EventTurn)

// Engine 驱动两个角色之间的事件状态机
// 流程：监督者裁决 -> 角色回合 -> 监督者裁决 -> ... -> 结束
// 严格串行执行，一个Engine实例不能被并发使用
type Engine struct {
	turnGen    *TurnGenerator
	supervisor *Supervisor
	summarizer *Summarizer
	logger     *utils.Logger
	observer   TurnObserver
}

// NewEngine 创建事件引擎
func NewEngine(oracle Oracle) *Engine {
	return &Engine{
		turnGen:    NewTurnGenerator(oracle),
		supervisor: NewSupervisor(oracle),
		summarizer: NewSummarizer(oracle),
		logger:     utils.GetLogger(),
	}
}

// SetTurnObserver 注册回合观察者
func (e *Engine) SetTurnObserver(observer TurnObserver) {
	e.observer = observer
}

// Run 运行状态机直到事件结束
// 入口是监督者，由它决定第一个发言方；出错时立即终止，状态不保证完整
func (e *Engine) Run(ctx context.Context, state *EventState) error {
	e.logger.Info("事件开始", map[string]interface{}{
		"event_type": state.Config.EventType,
		"min":        state.Config.MinInteractions,
		"max":        state.Config.MaxInteractions,
	})

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("事件被取消: %w", err)
		}

		decision, err := e.supervisor.Evaluate(ctx, state)
		if err != nil {
			return err
		}
		state.ApplyDecision(decision)

		if state.ShouldEnd {
			break
		}

		turn, err := e.turnGen.GenerateTurn(ctx, state, state.CurrentSpeaker)
		if err != nil {
			return err
		}
		state.AppendTurn(turn)

		if e.observer != nil {
			e.observer(turn)
		}
	}

	e.logger.Info("事件生成完成", map[string]interface{}{
		"turns": state.CurrentTurn,
	})

	return nil
}

// GenerateTranscript 运行完整事件并生成最终转录
func (e *Engine) GenerateTranscript(ctx context.Context, state *EventState) (models.EventTranscript, error) {
	if err := e.Run(ctx, state); err != nil {
		return models.EventTranscript{}, err
	}

	summary, err := e.summarizer.Summarize(ctx, state)
	if err != nil {
		return models.EventTranscript{}, err
	}

	return BuildTranscript(state, summary), nil
}
