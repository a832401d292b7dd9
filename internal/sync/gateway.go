package sync

import (
	"context"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/models"
)

// Gateway is the remote surface the sync client writes through. It is
// satisfied by LocalGateway for in-process use and by HTTPGateway for a
// client talking to the API server.
type Gateway interface {
	FetchAll(ctx context.Context) (*db.Snapshot, error)

	InsertTicket(ctx context.Context, ticket models.Ticket) (string, error)
	UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error
	AssignTicket(ctx context.Context, id, technicianID, scheduledDate string) error
	StartTicket(ctx context.Context, id string) error
	CompleteTicket(ctx context.Context, id string, p engine.CompleteParams) error
	CancelTicket(ctx context.Context, id, reason string) error

	InsertLead(ctx context.Context, lead models.Lead) (string, error)
	UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error
	DeleteLead(ctx context.Context, id string) error
	ConvertLead(ctx context.Context, id string, details engine.ConversionDetails) (string, error)

	InsertCustomer(ctx context.Context, customer models.Customer) (string, error)
	AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error)
	UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error
	DeleteMachine(ctx context.Context, customerID, machineID string) error

	InsertPart(ctx context.Context, part models.Part) (string, error)
	UpdatePart(ctx context.Context, id string, part models.Part) error
	InsertMachineType(ctx context.Context, mt models.MachineType) (string, error)

	InsertUser(ctx context.Context, user models.User) (string, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// LocalGateway implements Gateway directly over a store and the
// lifecycle engines, for embedding the ERP core without an HTTP hop.
type LocalGateway struct {
	db.Store
	Tickets *engine.TicketEngine
	Leads   *engine.LeadEngine
}

// NewLocalGateway wires a gateway over a store.
func NewLocalGateway(store db.Store, tickets *engine.TicketEngine, leads *engine.LeadEngine) *LocalGateway {
	return &LocalGateway{Store: store, Tickets: tickets, Leads: leads}
}

func (g *LocalGateway) AssignTicket(ctx context.Context, id, technicianID, scheduledDate string) error {
	return g.Tickets.Assign(ctx, id, technicianID, scheduledDate)
}

func (g *LocalGateway) StartTicket(ctx context.Context, id string) error {
	return g.Tickets.Start(ctx, id)
}

func (g *LocalGateway) CompleteTicket(ctx context.Context, id string, p engine.CompleteParams) error {
	_, _, err := g.Tickets.Complete(ctx, id, p)
	return err
}

func (g *LocalGateway) CancelTicket(ctx context.Context, id, reason string) error {
	return g.Tickets.Cancel(ctx, id, reason)
}

func (g *LocalGateway) ConvertLead(ctx context.Context, id string, details engine.ConversionDetails) (string, error) {
	return g.Leads.ConvertToCustomer(ctx, id, details)
}
