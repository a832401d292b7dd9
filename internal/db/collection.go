package db

import (
	"context"
	"errors"

	"github.com/gurutech/guru-erp/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrLastAdmin      = errors.New("cannot delete the last remaining admin")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicatePhone = errors.New("phone number already exists")
)

// Snapshot is the bulk read returned at session start. AMCExpiries is a
// derived view computed at read time, not stored.
type Snapshot struct {
	Tickets      []models.Ticket      `json:"tickets"`
	Customers    []models.Customer    `json:"customers"`
	Leads        []models.Lead        `json:"leads"`
	Parts        []models.Part        `json:"parts"`
	MachineTypes []models.MachineType `json:"machineTypes"`
	Users        []models.User        `json:"users"`
	AMCExpiries  []models.AMCExpiry   `json:"amcExpiries"`
}

// TicketCollection defines the interface for ticket database operations
type TicketCollection interface {
	InsertTicket(ctx context.Context, ticket models.Ticket) (string, error)
	FindTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	FindTickets(ctx context.Context) ([]models.Ticket, error)
	UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error
	AppendAssignment(ctx context.Context, entry models.AssignmentHistory) error
	FindAssignmentHistory(ctx context.Context, ticketID string) ([]models.AssignmentHistory, error)
}

// LeadCollection defines the interface for lead database operations
type LeadCollection interface {
	InsertLead(ctx context.Context, lead models.Lead) (string, error)
	FindLeadByID(ctx context.Context, id string) (*models.Lead, error)
	FindLeads(ctx context.Context) ([]models.Lead, error)
	UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error
	DeleteLead(ctx context.Context, id string) error
	AppendLeadHistory(ctx context.Context, entry models.LeadHistory) error
	FindLeadHistory(ctx context.Context, leadID string) ([]models.LeadHistory, error)
}

// CustomerCollection defines the interface for customer database operations
type CustomerCollection interface {
	InsertCustomer(ctx context.Context, customer models.Customer) (string, error)
	FindCustomerByID(ctx context.Context, id string) (*models.Customer, error)
	FindCustomers(ctx context.Context) ([]models.Customer, error)
	AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error)
	UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error
	DeleteMachine(ctx context.Context, customerID, machineID string) error
}

// PartCollection defines the interface for part database operations
type PartCollection interface {
	InsertPart(ctx context.Context, part models.Part) (string, error)
	FindPartByID(ctx context.Context, id string) (*models.Part, error)
	FindParts(ctx context.Context) ([]models.Part, error)
	UpdatePart(ctx context.Context, id string, part models.Part) error
	SetStockQuantity(ctx context.Context, id string, quantity int) error
}

// MachineTypeCollection defines the interface for machine type catalog operations
type MachineTypeCollection interface {
	InsertMachineType(ctx context.Context, mt models.MachineType) (string, error)
	FindMachineTypes(ctx context.Context) ([]models.MachineType, error)
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (string, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int64, error)
}

// Store bundles every collection with the bulk read used at session start.
type Store interface {
	TicketCollection
	LeadCollection
	CustomerCollection
	PartCollection
	MachineTypeCollection
	UserCollection
	FetchAll(ctx context.Context) (*Snapshot, error)
}
