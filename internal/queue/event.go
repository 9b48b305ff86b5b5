// Package queue defines the domain events exchanged over the message
// broker and the publisher/consumer plumbing around them.
package queue

// Queue names. Both queues are declared durable and messages are
// published persistent.
const (
	TicketReservedQueue       = "ticket.reserved"
	PerformanceScheduledQueue = "performance.scheduled"
)

// TicketReservedEvent is published when a reservation succeeds. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database. Holder describes either the
// authenticated user or the guest contact.
type TicketReservedEvent struct {
	TicketID     uint64 `json:"ticket_id"`
	FestivalID   uint64 `json:"festival_id"`
	FestivalName string `json:"festival_name"`
	UserID       uint64 `json:"user_id,omitempty"`
	Holder       string `json:"holder"`
	ContactEmail string `json:"contact_email,omitempty"`
	ReservedAt   string `json:"reserved_at"`
}

// PerformanceScheduledEvent is published when a band is successfully
// scheduled onto a stage.
type PerformanceScheduledEvent struct {
	PerformanceID uint64 `json:"performance_id"`
	FestivalID    uint64 `json:"festival_id"`
	StageID       uint64 `json:"stage_id"`
	BandID        uint64 `json:"band_id"`
	TimeFrom      string `json:"time_from"`
	TimeTo        string `json:"time_to"`
	ScheduledAt   string `json:"scheduled_at"`
}
