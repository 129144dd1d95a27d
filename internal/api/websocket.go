// internal/api/websocket.go
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/FarmVillageMCP/internal/engine"
	"github.com/Corphon/FarmVillageMCP/internal/models"
	"github.com/Corphon/FarmVillageMCP/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage WebSocket下行消息
type wsMessage struct {
	Type  string      `json:"type"` // turn | result | error
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// GenerateEventWS 通过WebSocket运行事件并实时推送每个回合
// 客户端连接后发送一条EventCreateRequest，随后接收turn消息流，
// 最后收到result（或error）消息，连接由服务端关闭
func (h *Handler) GenerateEventWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("WebSocket升级失败", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var req services.EventCreateRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: "无法解析事件请求: " + err.Error()})
		return
	}

	// 生成期间不再读取，但需要消费控制帧
	conn.SetReadDeadline(time.Time{})
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	// 写操作可能来自观察者回调和最终结果发送
	var writeMu sync.Mutex
	writeJSON := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	observer := func(turn models.EventTurn) {
		if err := writeJSON(wsMessage{Type: "turn", Data: turn}); err != nil {
			h.Logger.Warn("推送回合失败", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	result, err := h.EventService.CreateEvent(c.Request.Context(), &req, engine.TurnObserver(observer))
	if err != nil {
		writeJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}

	writeJSON(wsMessage{Type: "result", Data: result})

	writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "event complete"))
	writeMu.Unlock()
}
