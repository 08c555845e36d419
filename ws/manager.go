package ws

import (
	"sync"

	"examportal/internal/logger"
	"examportal/internal/services"

	"gorm.io/gorm"
)

// WebSocketManager tracks connected clients and the exam rooms they sit in.
// Rooms are keyed by exam ID; one client is in at most one room at a time.
type WebSocketManager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	resultService services.ResultService
	db            *gorm.DB
}

func NewWebSocketManager(resultService services.ResultService, db *gorm.DB) *WebSocketManager {
	return &WebSocketManager{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		resultService: resultService,
		db:            db,
	}
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.ID] = client
			total := len(manager.clients)
			manager.mu.Unlock()
			logger.Info("ws client registered", "user_id", client.ID, "total", total)

		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, ok := manager.clients[client.ID]; ok {
				manager.removeFromRoomLocked(client)
				close(client.Send)
				delete(manager.clients, client.ID)
				logger.Info("ws client unregistered", "user_id", client.ID, "total", len(manager.clients))
			}
			manager.mu.Unlock()
		}
	}
}

// JoinRoom moves a client into the room for the given exam, leaving any
// previous room first.
func (manager *WebSocketManager) JoinRoom(examID string, client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	manager.removeFromRoomLocked(client)

	room, ok := manager.rooms[examID]
	if !ok {
		room = make(map[string]*Client)
		manager.rooms[examID] = room
	}
	room[client.ID] = client
	client.ExamID = examID
}

// LeaveRoom removes a client from its current room.
func (manager *WebSocketManager) LeaveRoom(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.removeFromRoomLocked(client)
}

func (manager *WebSocketManager) removeFromRoomLocked(client *Client) {
	if client.ExamID == "" {
		return
	}
	if room, ok := manager.rooms[client.ExamID]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(manager.rooms, client.ExamID)
		}
	}
	client.ExamID = ""
}

// BroadcastToRoom sends a message to every client in an exam room except the
// one identified by exceptID. A client with a full send channel is dropped.
func (manager *WebSocketManager) BroadcastToRoom(examID string, message any, exceptID string) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	for clientID, client := range manager.rooms[examID] {
		if clientID == exceptID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			go func(c *Client) {
				manager.unregister <- c
			}(client)
			logger.Warn("ws client dropped, send channel full", "user_id", clientID)
		}
	}
}

// BroadcastToClient sends a message to one connected client, if present.
func (manager *WebSocketManager) BroadcastToClient(clientID string, message any) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if client, ok := manager.clients[clientID]; ok {
		select {
		case client.Send <- message:
		default:
			go func() {
				manager.unregister <- client
			}()
		}
	}
}

func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

func (manager *WebSocketManager) IsClientConnected(clientID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	_, exists := manager.clients[clientID]
	return exists
}

// RoomSize returns the number of clients in an exam room.
func (manager *WebSocketManager) RoomSize(examID string) int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.rooms[examID])
}
