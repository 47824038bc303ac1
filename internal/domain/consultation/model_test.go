package consultation_test

import (
	"testing"

	"teleclinic/consult-api/internal/domain/consultation"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		status   consultation.Status
		expected bool
	}{
		{"ongoing is not terminal", consultation.StatusOngoing, false},
		{"completed is terminal", consultation.StatusCompleted, true},
		{"cancelled is terminal", consultation.StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name  string
		from  consultation.Status
		to    consultation.Status
		canDo bool
	}{
		{"ongoing to completed", consultation.StatusOngoing, consultation.StatusCompleted, true},
		{"ongoing to cancelled", consultation.StatusOngoing, consultation.StatusCancelled, true},
		{"completed to ongoing - invalid", consultation.StatusCompleted, consultation.StatusOngoing, false},
		{"completed to cancelled - invalid", consultation.StatusCompleted, consultation.StatusCancelled, false},
		{"cancelled to ongoing - invalid", consultation.StatusCancelled, consultation.StatusOngoing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.canDo {
				t.Errorf("Status.CanTransitionTo() = %v, want %v", got, tt.canDo)
			}
		})
	}
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		page       consultation.Page
		wantNumber int
		wantSize   int
		wantOffset int
	}{
		{"defaults applied", consultation.Page{}, 1, 20, 0},
		{"negative values reset", consultation.Page{Number: -3, Size: -1}, 1, 20, 0},
		{"size capped", consultation.Page{Number: 2, Size: 500}, 2, 100, 100},
		{"valid page kept", consultation.Page{Number: 3, Size: 10}, 3, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.page.Normalize()
			if got.Number != tt.wantNumber || got.Size != tt.wantSize {
				t.Errorf("Normalize() = %+v, want number %d size %d", got, tt.wantNumber, tt.wantSize)
			}
			if offset := got.Offset(); offset != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}
