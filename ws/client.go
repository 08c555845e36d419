package ws

import (
	"context"
	"encoding/json"

	"examportal/internal/logger"
	"examportal/internal/models"

	"github.com/gorilla/websocket"
	"gorm.io/datatypes"
)

type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type OutgoingWSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Client struct {
	ID     string
	Role   models.UserRole
	ExamID string
	Conn   *websocket.Conn
	Send   chan any
	Ctx    context.Context

	Manager *WebSocketManager
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "user_id", c.ID, "error", err.Error())
			}
			break
		}

		var msg IncomingWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			logger.Warn("ws message parse failed", "user_id", c.ID, "error", err.Error())
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	for msg := range c.Send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			logger.Warn("ws write error", "user_id", c.ID, "error", err.Error())
			break
		}
	}
}

func (c *Client) handleMessage(msg IncomingWSMessage) {
	switch msg.Action {

	case "join-exam":
		var payload struct {
			ExamID string `json:"examId"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ExamID == "" {
			logger.Warn("invalid join-exam payload", "user_id", c.ID)
			return
		}
		c.Manager.JoinRoom(payload.ExamID, c)
		c.Manager.BroadcastToRoom(payload.ExamID, OutgoingWSMessage{
			Event: "student-joined",
			Data:  map[string]string{"examId": payload.ExamID, "userId": c.ID},
		}, c.ID)

	case "leave-exam":
		examID := c.ExamID
		c.Manager.LeaveRoom(c)
		if examID != "" {
			c.Manager.BroadcastToRoom(examID, OutgoingWSMessage{
				Event: "student-left",
				Data:  map[string]string{"examId": examID, "userId": c.ID},
			}, c.ID)
		}

	case "proctoring-alert":
		var payload struct {
			ExamID    string          `json:"examId"`
			EventType string          `json:"eventType"`
			Meta      json.RawMessage `json:"meta"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ExamID == "" || payload.EventType == "" {
			logger.Warn("invalid proctoring-alert payload", "user_id", c.ID)
			return
		}

		// Persist first. The relay is best-effort; the record is the point.
		err := c.Manager.resultService.RecordCheatingEvent(
			c.Manager.db, payload.ExamID, c.ID, payload.EventType, datatypes.JSON(payload.Meta),
		)
		if err != nil {
			logger.Error("failed to record cheating event", "user_id", c.ID, "exam_id", payload.ExamID, "error", err.Error())
		}

		c.Manager.BroadcastToRoom(payload.ExamID, OutgoingWSMessage{
			Event: "proctoring-alert",
			Data: map[string]any{
				"examId":    payload.ExamID,
				"userId":    c.ID,
				"eventType": payload.EventType,
				"meta":      payload.Meta,
			},
		}, c.ID)

	case "submit-exam":
		var payload struct {
			ExamID string `json:"examId"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ExamID == "" {
			logger.Warn("invalid submit-exam payload", "user_id", c.ID)
			return
		}
		c.Manager.BroadcastToRoom(payload.ExamID, OutgoingWSMessage{
			Event: "exam-submitted",
			Data:  map[string]string{"examId": payload.ExamID, "userId": c.ID},
		}, c.ID)
		c.Manager.LeaveRoom(c)

	default:
		logger.Warn("unhandled ws action", "action", msg.Action, "user_id", c.ID)
	}
}
