package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/events"
	"github.com/gurutech/guru-erp/internal/models"
)

var (
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrMissingCustomer    = errors.New("customer reference is required")
	ErrMissingDescription = errors.New("description is required")
	ErrMissingReason      = errors.New("cancellation reason is required")
)

const dateLayout = "2006-01-02"

// TicketEngine owns the ticket lifecycle: creation, assignment with its
// append-only history log, start of work, completion with parts
// consumption, and cancellation. Failures propagate to the caller
// untouched; the engine never retries.
type TicketEngine struct {
	tickets   db.TicketCollection
	customers db.CustomerCollection
	parts     db.PartCollection
	inventory *Inventory
	events    events.Publisher
	now       func() time.Time
}

// NewTicketEngine creates a ticket lifecycle engine.
func NewTicketEngine(tickets db.TicketCollection, customers db.CustomerCollection, parts db.PartCollection, publisher events.Publisher) *TicketEngine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TicketEngine{
		tickets:   tickets,
		customers: customers,
		parts:     parts,
		inventory: NewInventory(parts),
		events:    publisher,
		now:       time.Now,
	}
}

// CreateTicketParams are the inputs for creating a ticket. Any priority
// or type value is accepted; only the customer reference and description
// are validated.
type CreateTicketParams struct {
	ID            string
	CustomerID    string
	Type          models.ServiceType
	Description   string
	Priority      models.TicketPriority
	ScheduledDate string
}

// Create opens a new ticket in Pending with an empty consumed-items list
// and zero charges. The customer name is snapshotted onto the ticket at
// creation time.
func (e *TicketEngine) Create(ctx context.Context, p CreateTicketParams) (*models.Ticket, error) {
	if p.CustomerID == "" {
		return nil, ErrMissingCustomer
	}
	if p.Description == "" {
		return nil, ErrMissingDescription
	}

	customer, err := e.customers.FindCustomerByID(ctx, p.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	ticket := models.Ticket{
		ID:            p.ID,
		CustomerID:    p.CustomerID,
		CustomerName:  customer.Name,
		Type:          p.Type,
		Description:   p.Description,
		Priority:      p.Priority,
		Status:        models.TicketPending,
		ScheduledDate: p.ScheduledDate,
		ItemsUsed:     []models.ServiceItem{},
	}

	id, err := e.tickets.InsertTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	ticket.ID = id
	return &ticket, nil
}

// Assign moves a Pending ticket to Assigned, or reassigns/reschedules an
// already-Assigned ticket. One history row is appended per call,
// timestamped at call time, whether or not anything actually changed:
// the log is a call-audit trail, not a diff.
func (e *TicketEngine) Assign(ctx context.Context, ticketID, technicianID, scheduledDate string) error {
	ticket, err := e.tickets.FindTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.Status.CanTransition(models.TicketAssigned) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ticket.Status, models.TicketAssigned)
	}

	status := models.TicketAssigned
	update := models.TicketUpdate{
		Status:               &status,
		AssignedTechnicianID: &technicianID,
		ScheduledDate:        &scheduledDate,
	}
	if err := e.tickets.UpdateTicket(ctx, ticketID, update); err != nil {
		return err
	}

	if err := e.tickets.AppendAssignment(ctx, models.AssignmentHistory{
		TicketID:      ticketID,
		TechnicianID:  technicianID,
		AssignedAt:    e.now(),
		ScheduledDate: scheduledDate,
	}); err != nil {
		return err
	}

	e.events.PublishTicketEvent(events.TicketEvent{
		TicketID:     ticketID,
		CustomerName: ticket.CustomerName,
		Status:       models.TicketAssigned,
		TechnicianID: technicianID,
		Timestamp:    e.now(),
	})
	return nil
}

// Start moves an Assigned ticket to In Progress. The engine does not
// verify the caller owns the assignment; that check lives at the
// presentation layer.
func (e *TicketEngine) Start(ctx context.Context, ticketID string) error {
	ticket, err := e.tickets.FindTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.Status.CanTransition(models.TicketInProgress) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ticket.Status, models.TicketInProgress)
	}

	status := models.TicketInProgress
	return e.tickets.UpdateTicket(ctx, ticketID, models.TicketUpdate{Status: &status})
}

// ConsumedItem is a part+quantity consumed while closing a ticket. The
// unit cost is snapshotted from the part's current price at completion
// time, not supplied by the caller.
type ConsumedItem struct {
	PartID   string `json:"partId"`
	Quantity int    `json:"quantity"`
}

// CompleteParams are the closure inputs a technician submits.
type CompleteParams struct {
	Items         []ConsumedItem     `json:"items"`
	ServiceCharge float64            `json:"serviceCharge"`
	PaymentMode   models.PaymentMode `json:"paymentMode,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	NextFollowUp  string             `json:"nextFollowUp,omitempty"`
}

// Complete moves an In Progress ticket to Completed. It prices each
// consumed item from the part's current price, computes the total,
// stamps the completion date, and decrements stock per item. Stock
// shortfalls are returned as non-fatal warnings.
func (e *TicketEngine) Complete(ctx context.Context, ticketID string, p CompleteParams) (*models.Ticket, []StockWarning, error) {
	ticket, err := e.tickets.FindTicketByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !ticket.Status.CanTransition(models.TicketCompleted) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ticket.Status, models.TicketCompleted)
	}

	items := make([]models.ServiceItem, 0, len(p.Items))
	total := p.ServiceCharge
	for _, item := range p.Items {
		part, err := e.parts.FindPartByID(ctx, item.PartID)
		if err != nil {
			return nil, nil, fmt.Errorf("complete ticket: %w", err)
		}
		items = append(items, models.ServiceItem{
			PartID:   item.PartID,
			Quantity: item.Quantity,
			Cost:     part.Price,
		})
		total += part.Price * float64(item.Quantity)
	}

	status := models.TicketCompleted
	completedDate := e.now().Format(dateLayout)
	update := models.TicketUpdate{
		Status:          &status,
		ItemsUsed:       &items,
		ServiceCharge:   &p.ServiceCharge,
		TotalAmount:     &total,
		CompletedDate:   &completedDate,
		TechnicianNotes: &p.Notes,
	}
	if p.PaymentMode != "" {
		update.PaymentMode = &p.PaymentMode
	}
	if p.NextFollowUp != "" {
		update.NextFollowUp = &p.NextFollowUp
	}
	if err := e.tickets.UpdateTicket(ctx, ticketID, update); err != nil {
		return nil, nil, err
	}

	var warnings []StockWarning
	for _, item := range p.Items {
		warning, err := e.inventory.Consume(ctx, item.PartID, item.Quantity)
		if err != nil {
			return nil, warnings, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}

	completed, err := e.tickets.FindTicketByID(ctx, ticketID)
	if err != nil {
		return nil, warnings, err
	}

	e.events.PublishTicketEvent(events.TicketEvent{
		TicketID:     ticketID,
		CustomerName: completed.CustomerName,
		Status:       models.TicketCompleted,
		TechnicianID: completed.AssignedTechnicianID,
		Timestamp:    e.now(),
	})
	return completed, warnings, nil
}

// Cancel moves a Pending or Assigned ticket to Cancelled. A non-empty
// reason is required and stored on the ticket; no history row is written.
func (e *TicketEngine) Cancel(ctx context.Context, ticketID, reason string) error {
	if reason == "" {
		return ErrMissingReason
	}

	ticket, err := e.tickets.FindTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.Status.CanTransition(models.TicketCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ticket.Status, models.TicketCancelled)
	}

	status := models.TicketCancelled
	if err := e.tickets.UpdateTicket(ctx, ticketID, models.TicketUpdate{
		Status:             &status,
		CancellationReason: &reason,
	}); err != nil {
		return err
	}

	e.events.PublishTicketEvent(events.TicketEvent{
		TicketID:     ticketID,
		CustomerName: ticket.CustomerName,
		Status:       models.TicketCancelled,
		TechnicianID: ticket.AssignedTechnicianID,
		Timestamp:    e.now(),
	})
	return nil
}

// Update applies a generic partial update. A status change is validated
// against the transition table unless override is set; the override is
// the admin escape hatch for manual corrections.
func (e *TicketEngine) Update(ctx context.Context, ticketID string, update models.TicketUpdate, override bool) error {
	if update.Status != nil && !override {
		ticket, err := e.tickets.FindTicketByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if *update.Status != ticket.Status && !ticket.Status.CanTransition(*update.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, ticket.Status, *update.Status)
		}
	}
	return e.tickets.UpdateTicket(ctx, ticketID, update)
}
