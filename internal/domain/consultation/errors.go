package consultation

import "errors"

var (
	// ErrNotFound is returned when no matching consultation exists.
	ErrNotFound = errors.New("consultation not found")
	// ErrAlreadyEnded is returned when acting on a consultation in a
	// terminal state.
	ErrAlreadyEnded = errors.New("consultation already ended")
	// ErrPairBusy is returned when starting a session for a pair that
	// already has one ongoing.
	ErrPairBusy = errors.New("pair already has an ongoing consultation")
	// ErrNotParticipant is returned when a user acts on a consultation
	// they are not part of.
	ErrNotParticipant = errors.New("user is not a participant of this consultation")
)

// IsNotFound reports whether err means the consultation does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
