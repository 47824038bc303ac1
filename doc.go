// Package consultapi implements the consult-api service which provides
// video consultation management between doctors and patients on top of
// LiveKit.
//
// The service provides:
//   - Consultation lifecycle management (start, status resolution, rejoin, end)
//   - Per-doctor patient queues with positions and wait estimates
//   - A WebSocket event bridge for queue and consultation notifications
//   - LiveKit room provisioning and access token generation
//   - Room synchronization via polling to cancel abandoned consultations
//   - Payment initiation and verification against an external gateway
//   - JWT authentication via a JWKS endpoint
//
// The internal/callclient package is the matching client: it resolves
// session status, manages queue membership, consumes bridge events and
// drives the media session.
package consultapi
