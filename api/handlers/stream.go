package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/webextract/agent"
	"github.com/BaSui01/webextract/api"
)

// =============================================================================
// 📡 进度推送 Handler
// =============================================================================

// writeTimeout 单条事件的写超时。慢消费者由订阅端丢弃事件，
// 写超时只兜底已断开但未检测到的连接。
const writeTimeout = 10 * time.Second

// StreamHandler 通过 WebSocket 向客户端推送提取进度事件。
type StreamHandler struct {
	events  *agent.Broadcaster
	origins []string
	logger  *zap.Logger
}

// NewStreamHandler 创建进度推送处理器。origins 为允许的跨域来源模式，
// 为空时仅允许同源连接。
func NewStreamHandler(events *agent.Broadcaster, origins []string, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		events:  events,
		origins: origins,
		logger:  logger.With(zap.String("handler", "stream")),
	}
}

// HandleStream 处理 GET /ws/progress 请求
// @Summary 进度事件流
// @Description 升级为 WebSocket 连接并推送提取进度事件
// @Tags 提取
// @Router /ws/progress [get]
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	// 只推不收；CloseRead 负责响应控制帧并在客户端断开时取消 ctx
	ctx := conn.CloseRead(r.Context())

	sub := h.events.Subscribe()
	defer h.events.Unsubscribe(sub)

	h.logger.Debug("progress subscriber connected", zap.String("remote", r.RemoteAddr))

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-sub.Events():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.write(ctx, conn, ev); err != nil {
				h.logger.Debug("progress write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, ev agent.Event) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, toProgressEvent(ev))
}

// toProgressEvent 将编排器事件转为对外 DTO
func toProgressEvent(ev agent.Event) api.ProgressEvent {
	return api.ProgressEvent{
		Type:      string(ev.Type),
		Website:   ev.Website,
		Status:    string(ev.Status),
		Items:     ev.Items,
		Error:     ev.Error,
		Timestamp: ev.Timestamp,
	}
}
