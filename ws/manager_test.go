package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"examportal/internal/models"
	"examportal/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recordedEvent struct {
	ExamID    string
	UserID    string
	EventType string
	Meta      datatypes.JSON
}

// fakeResultService records cheating events in memory.
type fakeResultService struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *fakeResultService) RecordResult(_ *gorm.DB, _ string, _ *dto.RecordResultRequest) (*models.Result, error) {
	return nil, nil
}

func (s *fakeResultService) ResultsForUser(_ *gorm.DB, _ string) ([]models.Result, error) {
	return nil, nil
}

func (s *fakeResultService) ResultsForExam(_ *gorm.DB, _ string) ([]models.Result, error) {
	return nil, nil
}

func (s *fakeResultService) RecordCheatingEvent(_ *gorm.DB, examID, userID, eventType string, meta datatypes.JSON) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{ExamID: examID, UserID: userID, EventType: eventType, Meta: meta})
	return nil
}

func (s *fakeResultService) CheatingEventsForExam(_ *gorm.DB, _ string) ([]models.CheatingEvent, error) {
	return nil, nil
}

func (s *fakeResultService) recorded() []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedEvent(nil), s.events...)
}

func newTestClient(manager *WebSocketManager, id string, role models.UserRole) *Client {
	client := &Client{
		ID:      id,
		Role:    role,
		Send:    make(chan any, 8),
		Manager: manager,
	}
	manager.mu.Lock()
	manager.clients[id] = client
	manager.mu.Unlock()
	return client
}

func receive(t *testing.T, client *Client) OutgoingWSMessage {
	t.Helper()
	select {
	case raw := <-client.Send:
		msg, ok := raw.(OutgoingWSMessage)
		require.True(t, ok)
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ws message")
		return OutgoingWSMessage{}
	}
}

func TestJoinRoom_MovesBetweenRooms(t *testing.T) {
	t.Parallel()

	manager := NewWebSocketManager(&fakeResultService{}, nil)
	client := newTestClient(manager, "student-1", models.UserRoleStudent)

	manager.JoinRoom("exam-1", client)
	assert.Equal(t, 1, manager.RoomSize("exam-1"))
	assert.Equal(t, "exam-1", client.ExamID)

	manager.JoinRoom("exam-2", client)
	assert.Equal(t, 0, manager.RoomSize("exam-1"))
	assert.Equal(t, 1, manager.RoomSize("exam-2"))
	assert.Equal(t, "exam-2", client.ExamID)

	manager.LeaveRoom(client)
	assert.Equal(t, 0, manager.RoomSize("exam-2"))
	assert.Empty(t, client.ExamID)
}

func TestBroadcastToRoom_ExcludesSender(t *testing.T) {
	t.Parallel()

	manager := NewWebSocketManager(&fakeResultService{}, nil)
	sender := newTestClient(manager, "student-1", models.UserRoleStudent)
	watcher := newTestClient(manager, "admin-1", models.UserRoleAdmin)
	outsider := newTestClient(manager, "student-2", models.UserRoleStudent)

	manager.JoinRoom("exam-1", sender)
	manager.JoinRoom("exam-1", watcher)
	manager.JoinRoom("exam-2", outsider)

	manager.BroadcastToRoom("exam-1", OutgoingWSMessage{Event: "ping"}, sender.ID)

	msg := receive(t, watcher)
	assert.Equal(t, "ping", msg.Event)
	assert.Empty(t, sender.Send)
	assert.Empty(t, outsider.Send)
}

func TestProctoringAlert_PersistsAndRelays(t *testing.T) {
	t.Parallel()

	resultService := &fakeResultService{}
	manager := NewWebSocketManager(resultService, nil)
	student := newTestClient(manager, "student-1", models.UserRoleStudent)
	proctor := newTestClient(manager, "admin-1", models.UserRoleAdmin)

	manager.JoinRoom("exam-1", student)
	manager.JoinRoom("exam-1", proctor)

	student.handleMessage(IncomingWSMessage{
		Action: "proctoring-alert",
		Data:   json.RawMessage(`{"examId":"exam-1","eventType":"face-not-visible","meta":{"confidence":0.92}}`),
	})

	events := resultService.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "exam-1", events[0].ExamID)
	assert.Equal(t, "student-1", events[0].UserID)
	assert.Equal(t, "face-not-visible", events[0].EventType)
	assert.JSONEq(t, `{"confidence":0.92}`, string(events[0].Meta))

	msg := receive(t, proctor)
	assert.Equal(t, "proctoring-alert", msg.Event)
	assert.Empty(t, student.Send)
}

func TestProctoringAlert_RejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	resultService := &fakeResultService{}
	manager := NewWebSocketManager(resultService, nil)
	student := newTestClient(manager, "student-1", models.UserRoleStudent)
	manager.JoinRoom("exam-1", student)

	student.handleMessage(IncomingWSMessage{
		Action: "proctoring-alert",
		Data:   json.RawMessage(`{"examId":"exam-1"}`),
	})

	assert.Empty(t, resultService.recorded())
}

func TestSubmitExam_RelaysAndLeavesRoom(t *testing.T) {
	t.Parallel()

	manager := NewWebSocketManager(&fakeResultService{}, nil)
	student := newTestClient(manager, "student-1", models.UserRoleStudent)
	proctor := newTestClient(manager, "admin-1", models.UserRoleAdmin)

	manager.JoinRoom("exam-1", student)
	manager.JoinRoom("exam-1", proctor)

	student.handleMessage(IncomingWSMessage{
		Action: "submit-exam",
		Data:   json.RawMessage(`{"examId":"exam-1"}`),
	})

	msg := receive(t, proctor)
	assert.Equal(t, "exam-submitted", msg.Event)
	assert.Equal(t, 1, manager.RoomSize("exam-1"))
	assert.Empty(t, student.ExamID)
}

func TestJoinExam_NotifiesRoom(t *testing.T) {
	t.Parallel()

	manager := NewWebSocketManager(&fakeResultService{}, nil)
	proctor := newTestClient(manager, "admin-1", models.UserRoleAdmin)
	student := newTestClient(manager, "student-1", models.UserRoleStudent)

	manager.JoinRoom("exam-1", proctor)

	student.handleMessage(IncomingWSMessage{
		Action: "join-exam",
		Data:   json.RawMessage(`{"examId":"exam-1"}`),
	})

	assert.Equal(t, 2, manager.RoomSize("exam-1"))
	msg := receive(t, proctor)
	assert.Equal(t, "student-joined", msg.Event)
}

func TestRegisterUnregister_CleansRoomMembership(t *testing.T) {
	t.Parallel()

	manager := NewWebSocketManager(&fakeResultService{}, nil)
	go manager.Run()

	client := &Client{
		ID:      "student-1",
		Send:    make(chan any, 8),
		Manager: manager,
	}
	manager.register <- client

	require.Eventually(t, func() bool {
		return manager.IsClientConnected("student-1")
	}, time.Second, 10*time.Millisecond)

	manager.JoinRoom("exam-1", client)
	manager.unregister <- client

	require.Eventually(t, func() bool {
		return !manager.IsClientConnected("student-1") && manager.RoomSize("exam-1") == 0
	}, time.Second, 10*time.Millisecond)
}
