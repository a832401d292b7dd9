package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gurutech/guru-erp/internal/models"
)

// MemoryStore is an in-memory Store implementation. It backs the offline
// fallback dataset and the test suite. All reads return copies so callers
// never alias store-held data.
type MemoryStore struct {
	mu sync.RWMutex

	tickets      []models.Ticket
	assignments  []models.AssignmentHistory
	leads        []models.Lead
	leadHistory  []models.LeadHistory
	customers    []models.Customer
	parts        []models.Part
	machineTypes []models.MachineType
	users        []models.User

	seq int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func copyTicket(t models.Ticket) models.Ticket {
	out := t
	out.ItemsUsed = append([]models.ServiceItem(nil), t.ItemsUsed...)
	return out
}

func copyCustomer(c models.Customer) models.Customer {
	out := c
	out.Machines = append([]models.Machine(nil), c.Machines...)
	return out
}

// --- Tickets ---

func (s *MemoryStore) InsertTicket(ctx context.Context, ticket models.Ticket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = s.nextID("t")
	}
	if ticket.ItemsUsed == nil {
		ticket.ItemsUsed = []models.ServiceItem{}
	}
	s.tickets = append(s.tickets, copyTicket(ticket))
	return ticket.ID, nil
}

func (s *MemoryStore) FindTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == id {
			out := copyTicket(t)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTickets(ctx context.Context) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, copyTicket(t))
	}
	return out, nil
}

func (s *MemoryStore) UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID != id {
			continue
		}
		t := &s.tickets[i]
		if update.Status != nil {
			t.Status = *update.Status
		}
		if update.AssignedTechnicianID != nil {
			t.AssignedTechnicianID = *update.AssignedTechnicianID
		}
		if update.ScheduledDate != nil {
			t.ScheduledDate = *update.ScheduledDate
		}
		if update.ItemsUsed != nil {
			t.ItemsUsed = append([]models.ServiceItem(nil), (*update.ItemsUsed)...)
		}
		if update.ServiceCharge != nil {
			t.ServiceCharge = *update.ServiceCharge
		}
		if update.TotalAmount != nil {
			t.TotalAmount = *update.TotalAmount
		}
		if update.CompletedDate != nil {
			t.CompletedDate = *update.CompletedDate
		}
		if update.PaymentMode != nil {
			t.PaymentMode = *update.PaymentMode
		}
		if update.TechnicianNotes != nil {
			t.TechnicianNotes = *update.TechnicianNotes
		}
		if update.NextFollowUp != nil {
			t.NextFollowUp = *update.NextFollowUp
		}
		if update.CancellationReason != nil {
			t.CancellationReason = *update.CancellationReason
		}
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) AppendAssignment(ctx context.Context, entry models.AssignmentHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = s.nextID("ah")
	}
	s.assignments = append(s.assignments, entry)
	return nil
}

func (s *MemoryStore) FindAssignmentHistory(ctx context.Context, ticketID string) ([]models.AssignmentHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.AssignmentHistory{}
	for _, h := range s.assignments {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

// --- Leads ---

func (s *MemoryStore) InsertLead(ctx context.Context, lead models.Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == "" {
		lead.ID = s.nextID("l")
	}
	s.leads = append(s.leads, lead)
	return lead.ID, nil
}

func (s *MemoryStore) FindLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leads {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindLeads(ctx context.Context) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Lead{}, s.leads...), nil
}

func (s *MemoryStore) UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID != id {
			continue
		}
		l := &s.leads[i]
		if update.Status != nil {
			l.Status = *update.Status
		}
		if update.Notes != nil {
			l.Notes = *update.Notes
		}
		if update.NextFollowUp != nil {
			l.NextFollowUp = *update.NextFollowUp
		}
		if update.EstimateValue != nil {
			l.EstimateValue = *update.EstimateValue
		}
		if update.LossReason != nil {
			l.LossReason = *update.LossReason
		}
		if update.Email != nil {
			l.Email = *update.Email
		}
		if update.Address != nil {
			l.Address = *update.Address
		}
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			kept := s.leadHistory[:0]
			for _, h := range s.leadHistory {
				if h.LeadID != id {
					kept = append(kept, h)
				}
			}
			s.leadHistory = kept
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AppendLeadHistory(ctx context.Context, entry models.LeadHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = s.nextID("lh")
	}
	s.leadHistory = append(s.leadHistory, entry)
	return nil
}

func (s *MemoryStore) FindLeadHistory(ctx context.Context, leadID string) ([]models.LeadHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.LeadHistory{}
	for _, h := range s.leadHistory {
		if h.LeadID == leadID {
			out = append(out, h)
		}
	}
	return out, nil
}

// --- Customers ---

func (s *MemoryStore) InsertCustomer(ctx context.Context, customer models.Customer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Phone == customer.Phone {
			return "", ErrDuplicatePhone
		}
	}
	if customer.ID == "" {
		customer.ID = s.nextID("c")
	}
	if customer.Machines == nil {
		customer.Machines = []models.Machine{}
	}
	for i := range customer.Machines {
		if customer.Machines[i].ID == "" {
			customer.Machines[i].ID = s.nextID("m")
		}
	}
	s.customers = append(s.customers, copyCustomer(customer))
	return customer.ID, nil
}

func (s *MemoryStore) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			out := copyCustomer(c)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindCustomers(ctx context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, copyCustomer(c))
	}
	return out, nil
}

func (s *MemoryStore) AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == customerID {
			if machine.ID == "" {
				machine.ID = s.nextID("m")
			}
			s.customers[i].Machines = append(s.customers[i].Machines, machine)
			return machine.ID, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStore) UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID != customerID {
			continue
		}
		for j := range s.customers[i].Machines {
			if s.customers[i].Machines[j].ID == machine.ID {
				s.customers[i].Machines[j] = machine
				return nil
			}
		}
		return ErrNotFound
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteMachine(ctx context.Context, customerID, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID != customerID {
			continue
		}
		machines := s.customers[i].Machines
		for j := range machines {
			if machines[j].ID == machineID {
				s.customers[i].Machines = append(machines[:j], machines[j+1:]...)
				return nil
			}
		}
		return ErrNotFound
	}
	return ErrNotFound
}

// --- Parts ---

func (s *MemoryStore) InsertPart(ctx context.Context, part models.Part) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if part.ID == "" {
		part.ID = s.nextID("p")
	}
	s.parts = append(s.parts, part)
	return part.ID, nil
}

func (s *MemoryStore) FindPartByID(ctx context.Context, id string) (*models.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.parts {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindParts(ctx context.Context) ([]models.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Part{}, s.parts...), nil
}

func (s *MemoryStore) UpdatePart(ctx context.Context, id string, part models.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parts {
		if s.parts[i].ID == id {
			part.ID = id
			s.parts[i] = part
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SetStockQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parts {
		if s.parts[i].ID == id {
			s.parts[i].StockQuantity = quantity
			return nil
		}
	}
	return ErrNotFound
}

// --- Machine types ---

func (s *MemoryStore) InsertMachineType(ctx context.Context, mt models.MachineType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mt.ID == "" {
		mt.ID = s.nextID("mt")
	}
	s.machineTypes = append(s.machineTypes, mt)
	return mt.ID, nil
}

func (s *MemoryStore) FindMachineTypes(ctx context.Context) ([]models.MachineType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MachineType{}, s.machineTypes...), nil
}

// --- Users ---

func (s *MemoryStore) InsertUser(ctx context.Context, user models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return "", ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = s.nextID("u")
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	s.users = append(s.users, user)
	return user.ID, nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User{}, s.users...), nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			user.ID = id
			user.CreatedAt = s.users[i].CreatedAt
			user.UpdatedAt = time.Now()
			s.users[i] = user
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	admins := 0
	for i, u := range s.users {
		if u.Role == models.RoleAdmin {
			admins++
		}
		if u.ID == id {
			idx = i
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	if s.users[idx].Role == models.RoleAdmin && admins <= 1 {
		return ErrLastAdmin
	}
	s.users = append(s.users[:idx], s.users[idx+1:]...)
	return nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			now := time.Now()
			s.users[i].LastLogin = &now
			s.users[i].UpdatedAt = now
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CountAdmins(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n, nil
}

// FetchAll returns the bulk snapshot with derived AMC expiries and
// password hashes stripped.
func (s *MemoryStore) FetchAll(ctx context.Context) (*Snapshot, error) {
	tickets, _ := s.FindTickets(ctx)
	customers, _ := s.FindCustomers(ctx)
	leads, _ := s.FindLeads(ctx)
	parts, _ := s.FindParts(ctx)
	machineTypes, _ := s.FindMachineTypes(ctx)
	users, _ := s.FindUsers(ctx)

	return &Snapshot{
		Tickets:      tickets,
		Customers:    customers,
		Leads:        leads,
		Parts:        parts,
		MachineTypes: machineTypes,
		Users:        stripPasswords(users),
		AMCExpiries:  ComputeAMCExpiries(customers, time.Now()),
	}, nil
}
