package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/resumine/resumine/internal/assistant"
	apperrors "github.com/resumine/resumine/pkg/errors"
	"github.com/resumine/resumine/pkg/logger"
	"github.com/resumine/resumine/pkg/response"
)

// AssistantHandler exposes the chat assistant, both as a plain request and as
// a websocket conversation.
type AssistantHandler struct {
	client   assistant.Client
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewAssistantHandler(client assistant.Client, allowedOrigins []string) *AssistantHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = struct{}{}
	}

	return &AssistantHandler{
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: logger.WithModule("assistant_handler"),
	}
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=8000"`
}

// Chat handles POST /assistant/chat.
func (h *AssistantHandler) Chat(c *gin.Context) {
	payload, ok := bindAndValidate[chatRequest](c)
	if !ok {
		return
	}

	reply, err := h.client.Chat(c.Request.Context(), payload.Message)
	if errors.Is(err, assistant.ErrAssistantDisabled) {
		response.Error(c, apperrors.New("ASSISTANT_DISABLED", "The assistant is not available", http.StatusNotFound))
		return
	}
	if err != nil {
		response.Error(c, apperrors.New("ASSISTANT_FAILED", "The assistant could not answer", http.StatusServiceUnavailable).WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reply": reply})
}

// wsMessage is the frame format for the websocket conversation.
type wsMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatStream handles GET /assistant/ws. Each incoming message produces one
// reply frame; errors are reported in-band so the connection survives a
// failed inference call.
func (h *AssistantHandler) ChatStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 << 10)

	for {
		var incoming wsMessage
		if err := conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		if incoming.Type != "chat" || incoming.Message == "" {
			_ = conn.WriteJSON(wsMessage{Type: "error", Error: "expected a chat frame with a message"})
			continue
		}

		reply, err := h.client.Chat(c.Request.Context(), incoming.Message)
		if err != nil {
			_ = conn.WriteJSON(wsMessage{Type: "error", Error: "the assistant could not answer"})
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
		if err := conn.WriteJSON(wsMessage{Type: "reply", Reply: reply}); err != nil {
			return
		}
	}
}
