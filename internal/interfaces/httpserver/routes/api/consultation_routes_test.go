package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/config"
	"teleclinic/consult-api/internal/domain/availability"
	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/domain/video"
	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/infrastructure/events"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/routes/api"
)

// MockConsultationService is a mock implementation of consultation.Service.
type MockConsultationService struct {
	StartFunc        func(ctx context.Context, doctorID, patientID int64) (*consultation.Consultation, error)
	CheckStatusFunc  func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*consultation.StatusResult, error)
	RejoinFunc       func(ctx context.Context, consultationID string, userID int64, userType string) (*consultation.Consultation, error)
	EndFunc          func(ctx context.Context, consultationID string, doctorID int64, notes string) error
	EndAbandonedFunc func(ctx context.Context, cons *consultation.Consultation) error
	GetByIDFunc      func(ctx context.Context, id string) (*consultation.Consultation, error)
	HistoryFunc      func(ctx context.Context, doctorID, patientID int64, page consultation.Page) (*consultation.HistoryPage, error)
}

func (m *MockConsultationService) Start(ctx context.Context, doctorID, patientID int64) (*consultation.Consultation, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, doctorID, patientID)
	}
	return nil, nil
}

func (m *MockConsultationService) CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*consultation.StatusResult, error) {
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, doctorID, patientID, autoJoin)
	}
	return &consultation.StatusResult{Action: consultation.ActionNone}, nil
}

func (m *MockConsultationService) Rejoin(ctx context.Context, consultationID string, userID int64, userType string) (*consultation.Consultation, error) {
	if m.RejoinFunc != nil {
		return m.RejoinFunc(ctx, consultationID, userID, userType)
	}
	return nil, nil
}

func (m *MockConsultationService) End(ctx context.Context, consultationID string, doctorID int64, notes string) error {
	if m.EndFunc != nil {
		return m.EndFunc(ctx, consultationID, doctorID, notes)
	}
	return nil
}

func (m *MockConsultationService) EndAbandoned(ctx context.Context, cons *consultation.Consultation) error {
	if m.EndAbandonedFunc != nil {
		return m.EndAbandonedFunc(ctx, cons)
	}
	return nil
}

func (m *MockConsultationService) GetByID(ctx context.Context, id string) (*consultation.Consultation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, consultation.ErrNotFound
}

func (m *MockConsultationService) History(ctx context.Context, doctorID, patientID int64, page consultation.Page) (*consultation.HistoryPage, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, doctorID, patientID, page)
	}
	return &consultation.HistoryPage{Page: page.Normalize()}, nil
}

// MockQueueService is a mock implementation of queue.Service.
type MockQueueService struct {
	JoinFunc        func(ctx context.Context, patientID, doctorID int64) (*queue.JoinResult, error)
	LeaveFunc       func(ctx context.Context, patientID, doctorID int64) ([]*queue.Entry, error)
	FetchFunc       func(ctx context.Context, doctorID int64) ([]*queue.Entry, error)
	ActiveEntryFunc func(ctx context.Context, doctorID, patientID int64) (*queue.Entry, error)
}

func (m *MockQueueService) Join(ctx context.Context, patientID, doctorID int64) (*queue.JoinResult, error) {
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, patientID, doctorID)
	}
	return &queue.JoinResult{Action: queue.JoinActionJoined, Position: 1}, nil
}

func (m *MockQueueService) Leave(ctx context.Context, patientID, doctorID int64) ([]*queue.Entry, error) {
	if m.LeaveFunc != nil {
		return m.LeaveFunc(ctx, patientID, doctorID)
	}
	return nil, nil
}

func (m *MockQueueService) Fetch(ctx context.Context, doctorID int64) ([]*queue.Entry, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, doctorID)
	}
	return nil, nil
}

func (m *MockQueueService) ActiveEntry(ctx context.Context, doctorID, patientID int64) (*queue.Entry, error) {
	if m.ActiveEntryFunc != nil {
		return m.ActiveEntryFunc(ctx, doctorID, patientID)
	}
	return nil, nil
}

func (m *MockQueueService) Promote(ctx context.Context, doctorID, patientID int64) error { return nil }
func (m *MockQueueService) Release(ctx context.Context, doctorID, patientID int64) error { return nil }
func (m *MockQueueService) EstimatedWait(position int) time.Duration {
	return time.Duration(position) * 10 * time.Minute
}

type staticTokens struct{}

func (staticTokens) Generate(room, identity string, ttl time.Duration) (string, error) {
	return "jwt-token", nil
}

type staticRooms struct{}

func (staticRooms) EnsureRoom(ctx context.Context, name string) error { return nil }
func (staticRooms) ListParticipants(ctx context.Context, room string) ([]string, error) {
	return nil, nil
}

type emptyRepo struct{ consultation.Repository }

func (emptyRepo) GetByRoom(ctx context.Context, roomName string) (*consultation.Consultation, error) {
	return nil, consultation.ErrNotFound
}

type nopPaymentRepo struct{}

func (nopPaymentRepo) Create(ctx context.Context, p *payment.Payment) error { return nil }
func (nopPaymentRepo) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	return nil, payment.ErrNotFound
}
func (nopPaymentRepo) UpdateStatus(ctx context.Context, id string, status payment.Status, gatewayRef string) error {
	return nil
}

type nopGateway struct{}

func (nopGateway) Initiate(ctx context.Context, p *payment.Payment) (string, string, error) {
	return "gw_ref", "https://pay.example.com/checkout", nil
}
func (nopGateway) Verify(ctx context.Context, ref, signature string) (bool, error) {
	return true, nil
}

// newTestRouter wires the route tree over mocked services with the
// development (auth disabled) identity middleware.
func newTestRouter(t *testing.T, consults consultation.Service, queues queue.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	cfg := &config.Config{
		WSWriteTimeout: time.Second,
		WSPingInterval: time.Minute,
	}
	avail := availability.NewService(time.Millisecond, log)
	hub := events.NewHub(cfg, avail, log)
	t.Cleanup(hub.CloseAll)

	videoService := video.NewService(staticTokens{}, staticRooms{}, emptyRepo{}, time.Hour, log)
	paymentService := payment.NewService(nopPaymentRepo{}, nopGateway{}, log)

	provider := handlers.NewProvider(consults, queues, videoService, paymentService, hub, avail, log)

	validator, err := auth.NewValidator(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	engine := gin.New()
	api.NewRoutes(provider).Register(engine, validator.Middleware())
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCheckStatusRoute(t *testing.T) {
	consults := &MockConsultationService{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*consultation.StatusResult, error) {
			return &consultation.StatusResult{
				Action:        consultation.ActionWait,
				Position:      2,
				EstimatedWait: 20 * time.Minute,
			}, nil
		},
	}
	engine := newTestRouter(t, consults, &MockQueueService{})

	w := doJSON(t, engine, http.MethodPost, "/api/consultation/checkStatus",
		map[string]any{"doctorId": 1, "patientId": 2, "autoJoin": true}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success       bool   `json:"success"`
		Action        string `json:"action"`
		Position      int    `json:"position"`
		EstimatedWait int    `json:"estimatedWait"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Action != "wait" || resp.Position != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.EstimatedWait != 1200 {
		t.Errorf("estimatedWait = %d, want seconds", resp.EstimatedWait)
	}
}

func TestCheckStatusRoute_RejectsMissingIDs(t *testing.T) {
	engine := newTestRouter(t, &MockConsultationService{}, &MockQueueService{})

	w := doJSON(t, engine, http.MethodPost, "/api/consultation/checkStatus",
		map[string]any{"doctorId": 1}, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// A doctor-side status check must not auto-join the doctor into a queue.
func TestCheckStatusRoute_AutoJoinOnlyForPatients(t *testing.T) {
	var gotAutoJoin bool
	consults := &MockConsultationService{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*consultation.StatusResult, error) {
			gotAutoJoin = autoJoin
			return &consultation.StatusResult{Action: consultation.ActionNone}, nil
		},
	}
	engine := newTestRouter(t, consults, &MockQueueService{})

	doJSON(t, engine, http.MethodPost, "/api/consultation/checkStatus",
		map[string]any{"doctorId": 1, "patientId": 2, "autoJoin": true},
		map[string]string{"X-Debug-Role": "doctor", "X-Debug-User-ID": "1"})

	if gotAutoJoin {
		t.Error("autoJoin must be dropped for doctor-side checks")
	}
}

func TestStartConsultationRoute_Authorization(t *testing.T) {
	consults := &MockConsultationService{
		StartFunc: func(ctx context.Context, doctorID, patientID int64) (*consultation.Consultation, error) {
			return &consultation.Consultation{
				ID: "cons_abc", DoctorID: doctorID, PatientID: patientID,
				RoomName: "room-2", Status: consultation.StatusOngoing,
				StartedAt: time.Now(),
			}, nil
		},
	}
	engine := newTestRouter(t, consults, &MockQueueService{})
	body := map[string]any{"doctorId": 1, "patientId": 2}

	// The doctor themselves may start.
	w := doJSON(t, engine, http.MethodPost, "/api/consultation/startConsultation", body,
		map[string]string{"X-Debug-Role": "doctor", "X-Debug-User-ID": "1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	// A patient may not.
	w = doJSON(t, engine, http.MethodPost, "/api/consultation/startConsultation", body,
		map[string]string{"X-Debug-Role": "patient", "X-Debug-User-ID": "2"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// Another doctor may not start on this doctor's behalf.
	w = doJSON(t, engine, http.MethodPost, "/api/consultation/startConsultation", body,
		map[string]string{"X-Debug-Role": "doctor", "X-Debug-User-ID": "7"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestStartConsultationRoute_FlatBody(t *testing.T) {
	consults := &MockConsultationService{
		StartFunc: func(ctx context.Context, doctorID, patientID int64) (*consultation.Consultation, error) {
			return &consultation.Consultation{
				ID: "c1", DoctorID: doctorID, PatientID: patientID,
				RoomName: "room-9", Status: consultation.StatusOngoing,
				StartedAt: time.Now(),
			}, nil
		},
		RejoinFunc: func(ctx context.Context, consultationID string, userID int64, userType string) (*consultation.Consultation, error) {
			return &consultation.Consultation{
				ID: consultationID, DoctorID: 5, PatientID: 9,
				RoomName: "room-9", Status: consultation.StatusOngoing,
				StartedAt: time.Now(),
			}, nil
		},
	}
	engine := newTestRouter(t, consults, &MockQueueService{})

	w := doJSON(t, engine, http.MethodPost, "/api/consultation/startConsultation",
		map[string]any{"doctorId": 5, "patientId": 9},
		map[string]string{"X-Debug-Role": "doctor", "X-Debug-User-ID": "5"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["consultationId"] != "c1" {
		t.Errorf("consultationId = %v, want c1", body["consultationId"])
	}
	if body["roomName"] != "room-9" {
		t.Errorf("roomName = %v, want room-9", body["roomName"])
	}
	if body["doctorId"] != float64(5) || body["patientId"] != float64(9) {
		t.Errorf("ids = %v/%v, want 5/9", body["doctorId"], body["patientId"])
	}
	if _, nested := body["consultation"]; nested {
		t.Error("consultation fields must be top-level, not nested")
	}

	w = doJSON(t, engine, http.MethodPost, "/api/consultation/rejoin",
		map[string]any{"consultationId": "c1", "userId": 9, "userType": "patient"},
		map[string]string{"X-Debug-Role": "patient", "X-Debug-User-ID": "9"})
	if w.Code != http.StatusOK {
		t.Fatalf("rejoin status = %d, body %s", w.Code, w.Body.String())
	}
	body = map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rejoin body: %v", err)
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Error("rejoin body missing message")
	}
	if body["roomName"] != "room-9" {
		t.Errorf("rejoin roomName = %v, want room-9", body["roomName"])
	}
}

func TestEndConsultationRoute_MapsDomainErrors(t *testing.T) {
	consults := &MockConsultationService{
		EndFunc: func(ctx context.Context, consultationID string, doctorID int64, notes string) error {
			return consultation.ErrNotFound
		},
	}
	engine := newTestRouter(t, consults, &MockQueueService{})

	w := doJSON(t, engine, http.MethodPost, "/api/consultation/endConsultation",
		map[string]any{"consultationId": "cons_missing", "doctorId": 1}, nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
}

func TestQueueRoutes(t *testing.T) {
	queues := &MockQueueService{
		JoinFunc: func(ctx context.Context, patientID, doctorID int64) (*queue.JoinResult, error) {
			return &queue.JoinResult{
				Action:        queue.JoinActionJoined,
				Position:      1,
				EstimatedWait: 10 * time.Minute,
				QueueLength:   1,
			}, nil
		},
		FetchFunc: func(ctx context.Context, doctorID int64) ([]*queue.Entry, error) {
			return []*queue.Entry{
				{ID: 1, DoctorID: doctorID, PatientID: 2, Position: 1, Status: queue.StatusWaiting},
			}, nil
		},
	}
	engine := newTestRouter(t, &MockConsultationService{}, queues)

	w := doJSON(t, engine, http.MethodPost, "/api/patientQueue/join",
		map[string]any{"patientId": 2, "doctorId": 1}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join status = %d, body %s", w.Code, w.Body.String())
	}
	var joinResp struct {
		Success  bool   `json:"success"`
		Action   string `json:"action"`
		Position int    `json:"position"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &joinResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !joinResp.Success || joinResp.Action != "joined" || joinResp.Position != 1 {
		t.Errorf("unexpected join response: %+v", joinResp)
	}

	w = doJSON(t, engine, http.MethodGet, "/api/patientQueue/1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body %s", w.Code, w.Body.String())
	}
	var fetchResp struct {
		Success bool `json:"success"`
		Queue   []struct {
			PatientID int64 `json:"patientId"`
			Position  int   `json:"position"`
		} `json:"queue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fetchResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fetchResp.Queue) != 1 || fetchResp.Queue[0].Position != 1 {
		t.Errorf("unexpected fetch response: %+v", fetchResp)
	}
}

func TestQueueJoinRoute_Authorization(t *testing.T) {
	engine := newTestRouter(t, &MockConsultationService{}, &MockQueueService{})

	// A doctor cannot join a queue as a patient.
	w := doJSON(t, engine, http.MethodPost, "/api/patientQueue/join",
		map[string]any{"patientId": 2, "doctorId": 1},
		map[string]string{"X-Debug-Role": "doctor", "X-Debug-User-ID": "1"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestVideoTokenRoute(t *testing.T) {
	engine := newTestRouter(t, &MockConsultationService{}, &MockQueueService{})

	// The test repository has no consultations, so any room is unknown.
	w := doJSON(t, engine, http.MethodPost, "/api/video/token",
		map[string]any{"identity": "patient-2", "roomName": "room-404"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
}
