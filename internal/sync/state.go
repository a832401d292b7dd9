package sync

import (
	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

// State is the client-held copy of every entity collection. It is owned
// by a single Client and passed explicitly; nothing in this package
// reaches into ambient globals.
type State struct {
	Tickets      []models.Ticket
	Customers    []models.Customer
	Leads        []models.Lead
	Parts        []models.Part
	MachineTypes []models.MachineType
	Users        []models.User
	AMCExpiries  []models.AMCExpiry
}

// Clone deep-copies the state. Rollback is snapshot-and-restore, not
// patch-and-repair, so the copy must share nothing with the original.
func (s *State) Clone() *State {
	out := &State{
		Tickets:      make([]models.Ticket, len(s.Tickets)),
		Customers:    make([]models.Customer, len(s.Customers)),
		Leads:        append([]models.Lead(nil), s.Leads...),
		Parts:        append([]models.Part(nil), s.Parts...),
		MachineTypes: append([]models.MachineType(nil), s.MachineTypes...),
		Users:        append([]models.User(nil), s.Users...),
		AMCExpiries:  append([]models.AMCExpiry(nil), s.AMCExpiries...),
	}
	for i, t := range s.Tickets {
		t.ItemsUsed = append([]models.ServiceItem(nil), t.ItemsUsed...)
		out.Tickets[i] = t
	}
	for i, c := range s.Customers {
		c.Machines = append([]models.Machine(nil), c.Machines...)
		out.Customers[i] = c
	}
	return out
}

// fromSnapshot copies a bulk read into client state.
func fromSnapshot(snap *db.Snapshot) *State {
	s := &State{
		Tickets:      snap.Tickets,
		Customers:    snap.Customers,
		Leads:        snap.Leads,
		Parts:        snap.Parts,
		MachineTypes: snap.MachineTypes,
		Users:        snap.Users,
		AMCExpiries:  snap.AMCExpiries,
	}
	return s.Clone()
}
