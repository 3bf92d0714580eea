package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/internal/evaluator/service"
	"github.com/msto63/kinematics/pkg/core/logging"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler evaluates programs sent over a WebSocket connection.
// Messages on one connection are processed in order.
type WebSocketHandler struct {
	service *service.Service
	logger  *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(svc *service.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: svc,
		logger:  logging.New("evaluator-websocket"),
	}
}

// WSMessage represents a client message
type WSMessage struct {
	Type    string          `json:"type"` // "evaluate", "ping"
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSResponse represents a server message
type WSResponse struct {
	Type    string      `json:"type"` // "result", "error", "pong"
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles the WebSocket upgrade and the connection
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(conn)
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			h.send(conn, WSResponse{Type: "pong", ID: msg.ID})

		case "evaluate":
			h.handleEvaluate(ctx, conn, msg)

		default:
			h.sendError(conn, msg.ID, mdwerror.Newf("unknown message type: %s", msg.Type).
				WithCode(mdwerror.CodeInvalidInput))
		}
	}
}

func (h *WebSocketHandler) handleEvaluate(ctx context.Context, conn *websocket.Conn, msg WSMessage) {
	var payload EvaluateRequest
	dec := json.NewDecoder(bytes.NewReader(msg.Payload))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		h.sendError(conn, msg.ID, mdwerror.Wrap(err, "invalid evaluate payload").
			WithCode(mdwerror.CodeInvalidInput))
		return
	}

	req, err := payload.toServiceRequest()
	if err != nil {
		h.sendError(conn, msg.ID, err)
		return
	}

	resp, err := h.service.Evaluate(ctx, req)
	if err != nil {
		h.sendError(conn, msg.ID, err)
		return
	}

	h.send(conn, WSResponse{Type: "result", ID: msg.ID, Payload: newEvaluateResponse(resp)})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, resp WSResponse) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, id string, err error) {
	h.send(conn, WSResponse{
		Type: "error",
		ID:   id,
		Payload: WSErrorPayload{
			Code:    mdwerror.GetCode(err).String(),
			Message: err.Error(),
		},
	})
}
