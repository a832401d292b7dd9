package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/models"
)

// Notifier receives exactly one user-visible message per failed mutation.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// NopNotifier discards notifications.
var NopNotifier = NotifierFunc(func(string) {})

const defaultRemoteTimeout = 10 * time.Second

// Client applies optimistic local mutations, issues the corresponding
// remote write, and rolls the local state back on failure. The state is
// never observable "between": it is either the optimistic new state or
// the exact pre-mutation snapshot. In-flight mutations are serialized
// per entity kind so a later response cannot clobber an earlier one.
type Client struct {
	remote   Gateway
	notifier Notifier
	timeout  time.Duration

	stateMu stdsync.RWMutex
	state   *State
	offline bool

	kindMu map[string]*stdsync.Mutex
}

// NewClient creates a sync client over a remote gateway.
func NewClient(remote Gateway, notifier Notifier) *Client {
	if notifier == nil {
		notifier = NopNotifier
	}
	kinds := []string{"tickets", "leads", "customers", "parts", "machine types", "users"}
	kindMu := make(map[string]*stdsync.Mutex, len(kinds))
	for _, k := range kinds {
		kindMu[k] = &stdsync.Mutex{}
	}
	return &Client{
		remote:   remote,
		notifier: notifier,
		timeout:  defaultRemoteTimeout,
		state:    &State{},
		kindMu:   kindMu,
	}
}

// SetTimeout overrides the per-remote-call timeout that forces the
// rollback path when the server hangs.
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Load performs the initial bulk read. If the remote is unreachable the
// fixed fallback dataset is substituted and the session is flagged
// offline: it stays fully navigable but nothing is persisted.
func (c *Client) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	snap, err := c.remote.FetchAll(ctx)
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if err != nil {
		log.WithError(err).Warn("Server unreachable, using fallback dataset")
		fallback, _ := db.NewFallbackStore().FetchAll(context.Background())
		c.state = fromSnapshot(fallback)
		c.offline = true
		c.notifier.Notify("Server offline - changes will not be saved")
		return nil
	}
	c.state = fromSnapshot(snap)
	c.offline = false
	return nil
}

// Reload refreshes the full state from the source of truth. Used after
// compound mutations where the remote computes derived fields the client
// cannot predict.
func (c *Client) Reload(ctx context.Context) error {
	if c.Offline() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	snap, err := c.remote.FetchAll(ctx)
	if err != nil {
		return err
	}
	c.stateMu.Lock()
	c.state = fromSnapshot(snap)
	c.stateMu.Unlock()
	return nil
}

// State returns a deep copy of the current client state.
func (c *Client) State() *State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.Clone()
}

// Offline reports whether the session is running on the fallback dataset.
func (c *Client) Offline() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.offline
}

// mutate is the generic optimistic wrapper: snapshot, apply locally,
// issue the remote write, restore the snapshot on failure. Only the
// mutated kind's collection is restored, so a rollback cannot erase a
// mutation of another kind that committed while the remote call was in
// flight. Every failed mutation produces exactly one notification
// naming the action.
func (c *Client) mutate(kind, action string, apply func(*State), remote func(context.Context) error) error {
	mu := c.kindMu[kind]
	mu.Lock()
	defer mu.Unlock()

	c.stateMu.Lock()
	snapshot := c.state.Clone()
	apply(c.state)
	offline := c.offline
	c.stateMu.Unlock()

	// Offline sessions keep the optimistic state; there is nothing to
	// write through to.
	if offline {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := remote(ctx); err != nil {
		c.stateMu.Lock()
		restoreKind(c.state, snapshot, kind)
		c.stateMu.Unlock()
		log.WithError(err).WithField("action", action).Error("Remote write failed, rolled back")
		c.notifier.Notify(fmt.Sprintf("Failed to %s. Reverting changes.", action))
		return err
	}
	return nil
}

// restoreKind copies one kind's collection back from a pre-mutation
// snapshot. The snapshot is a deep clone, so aliasing its slice is safe.
func restoreKind(dst, snap *State, kind string) {
	switch kind {
	case "tickets":
		dst.Tickets = snap.Tickets
	case "leads":
		dst.Leads = snap.Leads
	case "customers":
		dst.Customers = snap.Customers
	case "parts":
		dst.Parts = snap.Parts
	case "machine types":
		dst.MachineTypes = snap.MachineTypes
	case "users":
		dst.Users = snap.Users
	}
}

// adoptServerID reconciles a client-generated id with the id the server
// stored. The server honors client ids, so normally this is a no-op; it
// guards against a remote that assigns its own.
func (c *Client) adoptServerID(clientID, serverID string, rewrite func(*State)) {
	if serverID == "" || serverID == clientID {
		return
	}
	c.stateMu.Lock()
	rewrite(c.state)
	c.stateMu.Unlock()
}

// mutateReload is mutate followed by a full reload on success, for
// operations whose remote side computes fields the client cannot
// predict (assigned ids, recalculated AMC windows, priced items).
func (c *Client) mutateReload(kind, action string, apply func(*State), remote func(context.Context) error) error {
	if err := c.mutate(kind, action, apply, remote); err != nil {
		return err
	}
	if err := c.Reload(context.Background()); err != nil {
		log.WithError(err).Warn("Reload after mutation failed, keeping optimistic state")
	}
	return nil
}

// --- Tickets ---

// CreateTicket opens a ticket optimistically with a client-generated id.
func (c *Client) CreateTicket(ticket models.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.Status = models.TicketPending
	if ticket.ItemsUsed == nil {
		ticket.ItemsUsed = []models.ServiceItem{}
	}
	return c.mutate("tickets", "create ticket",
		func(s *State) { s.Tickets = append(s.Tickets, ticket) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertTicket(ctx, ticket)
			if err != nil {
				return err
			}
			c.adoptServerID(ticket.ID, id, func(s *State) {
				for i := range s.Tickets {
					if s.Tickets[i].ID == ticket.ID {
						s.Tickets[i].ID = id
					}
				}
			})
			return nil
		})
}

// AssignTicket assigns or reassigns a ticket. The history row is written
// server-side only; on rollback no client-side trace of it remains.
func (c *Client) AssignTicket(ticketID, technicianID, scheduledDate string) error {
	return c.mutate("tickets", "assign ticket",
		func(s *State) {
			for i := range s.Tickets {
				if s.Tickets[i].ID == ticketID {
					s.Tickets[i].Status = models.TicketAssigned
					s.Tickets[i].AssignedTechnicianID = technicianID
					s.Tickets[i].ScheduledDate = scheduledDate
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.AssignTicket(ctx, ticketID, technicianID, scheduledDate)
		})
}

// StartTicket marks a ticket in progress.
func (c *Client) StartTicket(ticketID string) error {
	return c.mutate("tickets", "start ticket",
		func(s *State) {
			for i := range s.Tickets {
				if s.Tickets[i].ID == ticketID {
					s.Tickets[i].Status = models.TicketInProgress
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.StartTicket(ctx, ticketID)
		})
}

// CompleteTicket closes a ticket. Compound update: the server prices the
// consumed items and decrements stock, so the client reloads rather than
// trusting its optimistic shape.
func (c *Client) CompleteTicket(ticketID string, p engine.CompleteParams) error {
	return c.mutateReload("tickets", "complete ticket",
		func(s *State) {
			for i := range s.Tickets {
				if s.Tickets[i].ID == ticketID {
					s.Tickets[i].Status = models.TicketCompleted
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.CompleteTicket(ctx, ticketID, p)
		})
}

// CancelTicket cancels a ticket with a reason.
func (c *Client) CancelTicket(ticketID, reason string) error {
	return c.mutate("tickets", "cancel ticket",
		func(s *State) {
			for i := range s.Tickets {
				if s.Tickets[i].ID == ticketID {
					s.Tickets[i].Status = models.TicketCancelled
					s.Tickets[i].CancellationReason = reason
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.CancelTicket(ctx, ticketID, reason)
		})
}

// UpdateTicket applies a generic partial ticket update.
func (c *Client) UpdateTicket(ticketID string, update models.TicketUpdate) error {
	return c.mutate("tickets", "update ticket",
		func(s *State) {
			for i := range s.Tickets {
				if s.Tickets[i].ID == ticketID {
					applyTicketUpdate(&s.Tickets[i], update)
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.UpdateTicket(ctx, ticketID, update)
		})
}

// --- Leads ---

// CreateLead registers a lead optimistically with a client-generated id.
func (c *Client) CreateLead(lead models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.Status = models.LeadNew
	return c.mutate("leads", "add lead",
		func(s *State) { s.Leads = append(s.Leads, lead) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertLead(ctx, lead)
			if err != nil {
				return err
			}
			c.adoptServerID(lead.ID, id, func(s *State) {
				for i := range s.Leads {
					if s.Leads[i].ID == lead.ID {
						s.Leads[i].ID = id
					}
				}
			})
			return nil
		})
}

// UpdateLead applies a generic partial lead update.
func (c *Client) UpdateLead(leadID string, update models.LeadUpdate) error {
	return c.mutate("leads", "update lead",
		func(s *State) {
			for i := range s.Leads {
				if s.Leads[i].ID == leadID {
					applyLeadUpdate(&s.Leads[i], update)
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.UpdateLead(ctx, leadID, update)
		})
}

// DeleteLead removes a lead and its history. Confirmation is the
// caller's responsibility.
func (c *Client) DeleteLead(leadID string) error {
	return c.mutate("leads", "delete lead",
		func(s *State) {
			for i := range s.Leads {
				if s.Leads[i].ID == leadID {
					s.Leads = append(s.Leads[:i], s.Leads[i+1:]...)
					break
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.DeleteLead(ctx, leadID)
		})
}

// ConvertLead converts a sold lead to a customer. Compound update: the
// server assigns the new customer id, so the client reloads.
func (c *Client) ConvertLead(leadID string, details engine.ConversionDetails) error {
	return c.mutateReload("leads", "convert lead",
		func(s *State) {
			for i := range s.Leads {
				if s.Leads[i].ID == leadID {
					s.Leads[i].Status = models.LeadConverted
				}
			}
		},
		func(ctx context.Context) error {
			_, err := c.remote.ConvertLead(ctx, leadID, details)
			return err
		})
}

// --- Customers & machines ---

// CreateCustomer registers a customer optimistically.
func (c *Client) CreateCustomer(customer models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if customer.Machines == nil {
		customer.Machines = []models.Machine{}
	}
	return c.mutate("customers", "add customer",
		func(s *State) { s.Customers = append(s.Customers, customer) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertCustomer(ctx, customer)
			if err != nil {
				return err
			}
			c.adoptServerID(customer.ID, id, func(s *State) {
				for i := range s.Customers {
					if s.Customers[i].ID == customer.ID {
						s.Customers[i].ID = id
					}
				}
			})
			return nil
		})
}

// AddMachine registers a machine under a customer. Compound update: the
// server assigns the machine id and recalculates the AMC expiry view.
func (c *Client) AddMachine(customerID string, machine models.Machine) error {
	return c.mutateReload("customers", "add machine",
		func(s *State) {
			for i := range s.Customers {
				if s.Customers[i].ID == customerID {
					s.Customers[i].Machines = append(s.Customers[i].Machines, machine)
				}
			}
		},
		func(ctx context.Context) error {
			_, err := c.remote.AddMachine(ctx, customerID, machine)
			return err
		})
}

// UpdateMachine edits a machine in place. Compound update, reloads.
func (c *Client) UpdateMachine(customerID string, machine models.Machine) error {
	return c.mutateReload("customers", "update machine",
		func(s *State) {
			for i := range s.Customers {
				if s.Customers[i].ID != customerID {
					continue
				}
				for j := range s.Customers[i].Machines {
					if s.Customers[i].Machines[j].ID == machine.ID {
						s.Customers[i].Machines[j] = machine
					}
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.UpdateMachine(ctx, customerID, machine)
		})
}

// DeleteMachine removes a machine. Compound update, reloads.
func (c *Client) DeleteMachine(customerID, machineID string) error {
	return c.mutateReload("customers", "delete machine",
		func(s *State) {
			for i := range s.Customers {
				if s.Customers[i].ID != customerID {
					continue
				}
				machines := s.Customers[i].Machines
				for j := range machines {
					if machines[j].ID == machineID {
						s.Customers[i].Machines = append(machines[:j], machines[j+1:]...)
						break
					}
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.DeleteMachine(ctx, customerID, machineID)
		})
}

// --- Parts & machine types ---

// CreatePart registers a part optimistically.
func (c *Client) CreatePart(part models.Part) error {
	if part.ID == "" {
		part.ID = uuid.NewString()
	}
	return c.mutate("parts", "add part",
		func(s *State) { s.Parts = append(s.Parts, part) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertPart(ctx, part)
			if err != nil {
				return err
			}
			c.adoptServerID(part.ID, id, func(s *State) {
				for i := range s.Parts {
					if s.Parts[i].ID == part.ID {
						s.Parts[i].ID = id
					}
				}
			})
			return nil
		})
}

// UpdatePart edits a part in place.
func (c *Client) UpdatePart(partID string, part models.Part) error {
	part.ID = partID
	return c.mutate("parts", "update part",
		func(s *State) {
			for i := range s.Parts {
				if s.Parts[i].ID == partID {
					s.Parts[i] = part
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.UpdatePart(ctx, partID, part)
		})
}

// CreateMachineType registers a catalog entry.
func (c *Client) CreateMachineType(mt models.MachineType) error {
	if mt.ID == "" {
		mt.ID = uuid.NewString()
	}
	return c.mutate("machine types", "add machine type",
		func(s *State) { s.MachineTypes = append(s.MachineTypes, mt) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertMachineType(ctx, mt)
			if err != nil {
				return err
			}
			c.adoptServerID(mt.ID, id, func(s *State) {
				for i := range s.MachineTypes {
					if s.MachineTypes[i].ID == mt.ID {
						s.MachineTypes[i].ID = id
					}
				}
			})
			return nil
		})
}

// --- Users ---

// CreateUser registers a staff account.
func (c *Client) CreateUser(user models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return c.mutate("users", "add user",
		func(s *State) { s.Users = append(s.Users, user) },
		func(ctx context.Context) error {
			id, err := c.remote.InsertUser(ctx, user)
			if err != nil {
				return err
			}
			c.adoptServerID(user.ID, id, func(s *State) {
				for i := range s.Users {
					if s.Users[i].ID == user.ID {
						s.Users[i].ID = id
					}
				}
			})
			return nil
		})
}

// UpdateUser edits a staff account.
func (c *Client) UpdateUser(userID string, user models.User) error {
	user.ID = userID
	return c.mutate("users", "update user",
		func(s *State) {
			for i := range s.Users {
				if s.Users[i].ID == userID {
					s.Users[i] = user
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.UpdateUser(ctx, userID, user)
		})
}

// DeleteUser removes a staff account. The last-admin invariant is
// enforced remotely; a rejection rolls the optimistic removal back.
func (c *Client) DeleteUser(userID string) error {
	return c.mutate("users", "delete user",
		func(s *State) {
			for i := range s.Users {
				if s.Users[i].ID == userID {
					s.Users = append(s.Users[:i], s.Users[i+1:]...)
					break
				}
			}
		},
		func(ctx context.Context) error {
			return c.remote.DeleteUser(ctx, userID)
		})
}

func applyTicketUpdate(t *models.Ticket, update models.TicketUpdate) {
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
}

func applyLeadUpdate(l *models.Lead, update models.LeadUpdate) {
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
}
