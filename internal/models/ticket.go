package models

import "time"

// TicketStatus represents the lifecycle state of a service ticket
type TicketStatus string

const (
	TicketPending    TicketStatus = "Pending"
	TicketAssigned   TicketStatus = "Assigned"
	TicketInProgress TicketStatus = "In Progress"
	TicketCompleted  TicketStatus = "Completed"
	TicketCancelled  TicketStatus = "Cancelled"
)

// TicketPriority represents the urgency of a ticket
type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
	PriorityUrgent TicketPriority = "Urgent"
)

// ServiceType represents the kind of work a ticket covers
type ServiceType string

const (
	ServiceInstallation ServiceType = "Installation"
	ServiceRepair       ServiceType = "Repair"
	ServiceAMC          ServiceType = "AMC Service"
)

// PaymentMode represents how a completed ticket was settled
type PaymentMode string

const (
	PaymentCash    PaymentMode = "Cash"
	PaymentUPI     PaymentMode = "UPI"
	PaymentCard    PaymentMode = "Card"
	PaymentPending PaymentMode = "Not Paid"
)

// ServiceItem is a part consumed while servicing a ticket. Cost is the
// part's unit price captured at completion time and never re-looked-up.
type ServiceItem struct {
	PartID   string  `bson:"part_id" json:"partId"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Cost     float64 `bson:"cost" json:"cost"`
}

// Ticket represents a service ticket. Tickets are never deleted;
// cancellation is a terminal status, not removal.
type Ticket struct {
	ID                   string         `bson:"_id,omitempty" json:"id"`
	CustomerID           string         `bson:"customer_id" json:"customerId"`
	CustomerName         string         `bson:"customer_name" json:"customerName"` // snapshot at creation time
	Type                 ServiceType    `bson:"type" json:"type"`
	Description          string         `bson:"description" json:"description"`
	Priority             TicketPriority `bson:"priority" json:"priority"`
	Status               TicketStatus   `bson:"status" json:"status"`
	AssignedTechnicianID string         `bson:"assigned_technician_id,omitempty" json:"assignedTechnicianId,omitempty"`
	ScheduledDate        string         `bson:"scheduled_date" json:"scheduledDate"`
	CompletedDate        string         `bson:"completed_date,omitempty" json:"completedDate,omitempty"`
	ItemsUsed            []ServiceItem  `bson:"items_used" json:"itemsUsed"`
	ServiceCharge        float64        `bson:"service_charge" json:"serviceCharge"`
	TotalAmount          float64        `bson:"total_amount" json:"totalAmount"`
	PaymentMode          PaymentMode    `bson:"payment_mode,omitempty" json:"paymentMode,omitempty"`
	TechnicianNotes      string         `bson:"technician_notes,omitempty" json:"technicianNotes,omitempty"`
	NextFollowUp         string         `bson:"next_follow_up,omitempty" json:"nextFollowUp,omitempty"`
	CancellationReason   string         `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
}

// AssignmentHistory is one row of a ticket's append-only assignment log.
// A row is written on every assignment call, whether or not the technician
// or schedule actually changed. Rows are immutable once written.
type AssignmentHistory struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	TicketID      string    `bson:"ticket_id" json:"ticketId"`
	TechnicianID  string    `bson:"technician_id" json:"technicianId"`
	AssignedAt    time.Time `bson:"assigned_at" json:"assignedAt"`
	ScheduledDate string    `bson:"scheduled_date" json:"scheduledDate"`
}

// TicketUpdate is a partial ticket update; only non-nil fields are written.
type TicketUpdate struct {
	Status               *TicketStatus   `json:"status,omitempty"`
	AssignedTechnicianID *string         `json:"assignedTechnicianId,omitempty"`
	ScheduledDate        *string         `json:"scheduledDate,omitempty"`
	ItemsUsed            *[]ServiceItem  `json:"itemsUsed,omitempty"`
	ServiceCharge        *float64        `json:"serviceCharge,omitempty"`
	TotalAmount          *float64        `json:"totalAmount,omitempty"`
	CompletedDate        *string         `json:"completedDate,omitempty"`
	PaymentMode          *PaymentMode    `json:"paymentMode,omitempty"`
	TechnicianNotes      *string         `json:"technicianNotes,omitempty"`
	NextFollowUp         *string         `json:"nextFollowUp,omitempty"`
	CancellationReason   *string         `json:"cancellationReason,omitempty"`
}

// ticketTransitions is the legal transition table for ticket statuses.
// Assigned->Assigned covers reassignment and reschedule.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketPending:    {TicketAssigned, TicketCancelled},
	TicketAssigned:   {TicketAssigned, TicketInProgress, TicketCancelled},
	TicketInProgress: {TicketCompleted},
}

// CanTransition reports whether a ticket may move from one status to
// another. Completed and Cancelled are terminal.
func (s TicketStatus) CanTransition(to TicketStatus) bool {
	for _, next := range ticketTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s TicketStatus) IsTerminal() bool {
	return len(ticketTransitions[s]) == 0
}

// IsValidTicketStatus checks if a status value is known
func IsValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketPending, TicketAssigned, TicketInProgress, TicketCompleted, TicketCancelled:
		return true
	default:
		return false
	}
}
