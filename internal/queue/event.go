// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on the account.events queue.
const (
	EventUserCreated        = "user.created"
	EventUserDeleted        = "user.deleted"
	EventInstitutionCreated = "institution.created"
)

// AccountEvent is published when a privileged use case changes the
// user/institution graph.  It carries enough information for downstream
// consumers to notify or aggregate without querying the primary database.
type AccountEvent struct {
	Kind            string `json:"kind"`
	UserID          uint64 `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	GlobalRole      string `json:"global_role,omitempty"`
	InstitutionID   uint64 `json:"institution_id,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
	ActorID         uint64 `json:"actor_id"`
	OccurredAt      string `json:"occurred_at"`
}
