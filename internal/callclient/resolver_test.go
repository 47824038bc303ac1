package callclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/callclient"
)

// MockStatusAPI is a mock implementation of callclient.StatusAPI.
type MockStatusAPI struct {
	CheckStatusFunc func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error)
}

func (m *MockStatusAPI) CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error) {
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, doctorID, patientID, autoJoin)
	}
	return &callclient.StatusResult{Action: callclient.ActionNone}, nil
}

func TestResolver_Check(t *testing.T) {
	api := &MockStatusAPI{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error) {
			return &callclient.StatusResult{Action: callclient.ActionWait, Position: 2}, nil
		},
	}
	r := callclient.NewResolver(api, zerolog.Nop())

	res, err := r.Check(context.Background(), 1, 2, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != callclient.ActionWait || res.Position != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolver_Check_FallbackOnFailure(t *testing.T) {
	api := &MockStatusAPI{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := callclient.NewResolver(api, zerolog.Nop())

	res, err := r.Check(context.Background(), 1, 2, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if res == nil || res.Action != callclient.ActionNone {
		t.Errorf("expected none fallback, got %+v", res)
	}
}

// A slow check that resolves after a newer one must be dropped.
func TestResolver_Check_SupersededResultDropped(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	api := &MockStatusAPI{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(firstStarted)
				<-release
				return &callclient.StatusResult{Action: callclient.ActionWait, Position: 5}, nil
			}
			return &callclient.StatusResult{Action: callclient.ActionRejoin, ConsultationID: "cons_abc"}, nil
		},
	}
	r := callclient.NewResolver(api, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	var slowRes *callclient.StatusResult
	var slowErr error
	go func() {
		defer wg.Done()
		slowRes, slowErr = r.Check(context.Background(), 1, 2, false)
	}()

	<-firstStarted
	res, err := r.Check(context.Background(), 1, 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Action != callclient.ActionRejoin {
		t.Errorf("expected rejoin from the newer check, got %s", res.Action)
	}

	close(release)
	wg.Wait()

	if !errors.Is(slowErr, callclient.ErrStatusSuperseded) {
		t.Errorf("expected ErrStatusSuperseded, got %v", slowErr)
	}
	if slowRes != nil {
		t.Errorf("superseded check must not return a result, got %+v", slowRes)
	}
}

// Checks for different pairs do not supersede each other.
func TestResolver_Check_PairsIndependent(t *testing.T) {
	api := &MockStatusAPI{
		CheckStatusFunc: func(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*callclient.StatusResult, error) {
			return &callclient.StatusResult{Action: callclient.ActionNone}, nil
		},
	}
	r := callclient.NewResolver(api, zerolog.Nop())

	if _, err := r.Check(context.Background(), 1, 2, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Check(context.Background(), 1, 3, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Check(context.Background(), 1, 2, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
