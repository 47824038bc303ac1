package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/availability"
)

func TestService_DefaultsToUnavailable(t *testing.T) {
	svc := availability.NewService(time.Millisecond, zerolog.Nop())
	if svc.IsAvailable(1) {
		t.Error("doctors must default to unavailable")
	}
}

func TestService_SwitchAppliesAfterWindow(t *testing.T) {
	svc := availability.NewService(5*time.Millisecond, zerolog.Nop())

	svc.Switch(context.Background(), 1, true)
	waitFor(t, func() bool { return svc.IsAvailable(1) }, "doctor never became available")

	svc.Switch(context.Background(), 1, false)
	waitFor(t, func() bool { return !svc.IsAvailable(1) }, "doctor never became unavailable")
}

// A burst of toggles within the window collapses into the last value.
func TestService_BurstCollapsesToLastValue(t *testing.T) {
	svc := availability.NewService(20*time.Millisecond, zerolog.Nop())

	for i := 0; i < 10; i++ {
		svc.Switch(context.Background(), 1, i%2 == 0)
	}
	svc.Switch(context.Background(), 1, true)

	waitFor(t, func() bool { return svc.IsAvailable(1) }, "last value of the burst was not applied")
}

func TestService_DoctorsIndependent(t *testing.T) {
	svc := availability.NewService(time.Millisecond, zerolog.Nop())

	svc.Switch(context.Background(), 1, true)
	waitFor(t, func() bool { return svc.IsAvailable(1) }, "doctor 1 never became available")

	if svc.IsAvailable(2) {
		t.Error("doctor 2 must be unaffected by doctor 1's toggle")
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}
