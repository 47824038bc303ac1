// Package callclient is the client-side core of the consultation flow:
// a typed API client, the status resolver, the call state machine, the
// media session controller and the event consumer. It backs non-browser
// clients (kiosk devices, integration tests, load drivers) against the
// same contracts the web app uses.
package callclient

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"teleclinic/consult-api/internal/utils/platformerrors"
)

// Action is the resolved next step for a doctor/patient pair.
type Action string

const (
	ActionRejoin         Action = "rejoin"
	ActionEnded          Action = "ended"
	ActionInConsultation Action = "in_consultation"
	ActionWait           Action = "wait"
	ActionJoined         Action = "joined"
	ActionNone           Action = "none"
	ActionConflict       Action = "conflict"
)

// StatusResult is the outcome of a status check.
type StatusResult struct {
	Action         Action `json:"action"`
	ConsultationID string `json:"consultationId"`
	RoomName       string `json:"roomName"`
	Position       int    `json:"position"`
	EstimatedWait  int    `json:"estimatedWait"` // seconds
	QueueLength    int    `json:"queueLength"`
}

// Consultation mirrors the server's consultation record.
type Consultation struct {
	ID        string `json:"id"`
	DoctorID  int64  `json:"doctorId"`
	PatientID int64  `json:"patientId"`
	RoomName  string `json:"roomName"`
	Status    string `json:"status"`
}

// QueueEntry mirrors one row of a doctor's queue.
type QueueEntry struct {
	ID        int64  `json:"id"`
	DoctorID  int64  `json:"doctorId"`
	PatientID int64  `json:"patientId"`
	Position  int    `json:"position"`
	Status    string `json:"status"`
}

// JoinResult is the outcome of a queue join.
type JoinResult struct {
	Action         Action `json:"action"`
	Position       int    `json:"position"`
	EstimatedWait  int    `json:"estimatedWait"`
	QueueLength    int    `json:"queueLength"`
	ConsultationID string `json:"consultationId"`
	RoomName       string `json:"roomName"`
}

// Client is a typed HTTP client for the consult API.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates an API client. token may be empty in local development.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		http.SetAuthToken(token)
	}
	return &Client{
		http: http,
		log:  log.With().Str("component", "api-client").Logger(),
	}
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() {
	c.http.Close()
}

type startConsultationResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConsultationID string `json:"consultationId"`
	RoomName       string `json:"roomName"`
	DoctorID       int64  `json:"doctorId"`
	PatientID      int64  `json:"patientId"`
	Status         string `json:"status"`
}

func (r startConsultationResponse) consultation() *Consultation {
	return &Consultation{
		ID:        r.ConsultationID,
		DoctorID:  r.DoctorID,
		PatientID: r.PatientID,
		RoomName:  r.RoomName,
		Status:    r.Status,
	}
}

type statusResponse struct {
	Success bool `json:"success"`
	StatusResult
}

type queueResponse struct {
	Success bool         `json:"success"`
	Queue   []QueueEntry `json:"queue"`
}

type joinResponse struct {
	Success bool `json:"success"`
	JoinResult
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type participantsResponse struct {
	Success      bool     `json:"success"`
	Participants []string `json:"participants"`
}

// StartConsultation begins a session for the pair.
func (c *Client) StartConsultation(ctx context.Context, doctorID, patientID int64) (*Consultation, error) {
	var out startConsultationResponse
	err := c.post(ctx, "/api/consultation/startConsultation",
		map[string]any{"doctorId": doctorID, "patientId": patientID}, &out)
	if err != nil {
		return nil, err
	}
	return out.consultation(), nil
}

// CheckStatus resolves the pair's current state.
func (c *Client) CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error) {
	var out statusResponse
	err := c.post(ctx, "/api/consultation/checkStatus",
		map[string]any{"doctorId": doctorID, "patientId": patientID, "autoJoin": autoJoin}, &out)
	if err != nil {
		return nil, err
	}
	return &out.StatusResult, nil
}

// Rejoin resumes an ongoing consultation.
func (c *Client) Rejoin(ctx context.Context, consultationID string, userID int64, userType string) (*Consultation, error) {
	var out startConsultationResponse
	err := c.post(ctx, "/api/consultation/rejoin",
		map[string]any{"consultationId": consultationID, "userId": userID, "userType": userType}, &out)
	if err != nil {
		return nil, err
	}
	return out.consultation(), nil
}

// EndConsultation ends a session as the doctor.
func (c *Client) EndConsultation(ctx context.Context, consultationID string, doctorID int64, notes string) error {
	return c.post(ctx, "/api/consultation/endConsultation",
		map[string]any{"consultationId": consultationID, "doctorId": doctorID, "notes": notes}, nil)
}

// JoinQueue admits the patient to the doctor's queue.
func (c *Client) JoinQueue(ctx context.Context, patientID, doctorID int64) (*JoinResult, error) {
	var out joinResponse
	err := c.post(ctx, "/api/patientQueue/join",
		map[string]any{"patientId": patientID, "doctorId": doctorID}, &out)
	if err != nil {
		return nil, err
	}
	return &out.JoinResult, nil
}

// LeaveQueue removes the patient from the doctor's queue.
func (c *Client) LeaveQueue(ctx context.Context, patientID, doctorID int64) ([]QueueEntry, error) {
	var out queueResponse
	err := c.post(ctx, "/api/patientQueue/leave",
		map[string]any{"patientId": patientID, "doctorId": doctorID}, &out)
	if err != nil {
		return nil, err
	}
	return out.Queue, nil
}

// FetchQueue returns the doctor-side queue view.
func (c *Client) FetchQueue(ctx context.Context, doctorID int64) ([]QueueEntry, error) {
	var out queueResponse
	err := c.get(ctx, fmt.Sprintf("/api/patientQueue/%d", doctorID), &out)
	if err != nil {
		return nil, err
	}
	return out.Queue, nil
}

// VideoToken obtains a media access token for one identity and room.
func (c *Client) VideoToken(ctx context.Context, identity, roomName string) (string, error) {
	var out tokenResponse
	err := c.post(ctx, "/api/video/token",
		map[string]any{"identity": identity, "roomName": roomName}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Participants enumerates a room's participant identities.
func (c *Client) Participants(ctx context.Context, roomName string) ([]string, error) {
	var out participantsResponse
	err := c.get(ctx, fmt.Sprintf("/api/video/room/%s/participants", roomName), &out)
	if err != nil {
		return nil, err
	}
	return out.Participants, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetBody(body)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	return c.checkResponse(ctx, path, resp, err)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req := c.http.R().SetContext(ctx)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Get(path)
	return c.checkResponse(ctx, path, resp, err)
}

func (c *Client) checkResponse(ctx context.Context, path string, resp *resty.Response, err error) error {
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerClient,
			platformerrors.ErrorTypeExternal, fmt.Sprintf("request to %s failed", path), err, "")
	}
	if resp.IsError() {
		errType := platformerrors.ErrorTypeExternal
		switch resp.StatusCode() {
		case 404:
			errType = platformerrors.ErrorTypeNotFound
		case 409:
			errType = platformerrors.ErrorTypeConflict
		case 401:
			errType = platformerrors.ErrorTypeUnauthorized
		case 403:
			errType = platformerrors.ErrorTypeForbidden
		case 400:
			errType = platformerrors.ErrorTypeValidation
		}
		return platformerrors.NewError(ctx, platformerrors.LayerClient,
			errType, fmt.Sprintf("%s returned %d", path, resp.StatusCode()), nil, "")
	}
	return nil
}
