package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

var (
	ErrMissingName  = errors.New("lead name is required")
	ErrMissingPhone = errors.New("lead phone is required")
	ErrNotSold      = errors.New("only a sold lead can be converted")
)

// LeadEngine owns the sales pipeline: lead status progression, the
// append-only activity log, and lead-to-customer conversion.
type LeadEngine struct {
	leads     db.LeadCollection
	customers db.CustomerCollection
	now       func() time.Time
}

// NewLeadEngine creates a lead pipeline engine.
func NewLeadEngine(leads db.LeadCollection, customers db.CustomerCollection) *LeadEngine {
	return &LeadEngine{
		leads:     leads,
		customers: customers,
		now:       time.Now,
	}
}

func (e *LeadEngine) log(ctx context.Context, leadID, action, details string) error {
	return e.leads.AppendLeadHistory(ctx, models.LeadHistory{
		LeadID:    leadID,
		Action:    action,
		Details:   details,
		Timestamp: e.now(),
	})
}

// CreateLeadParams are the inputs for registering a new inquiry.
type CreateLeadParams struct {
	ID      string
	Name    string
	Phone   string
	Source  string
	Email   string
	Address string
}

// Create registers a lead in New and logs a Created entry.
func (e *LeadEngine) Create(ctx context.Context, p CreateLeadParams) (*models.Lead, error) {
	if p.Name == "" {
		return nil, ErrMissingName
	}
	if p.Phone == "" {
		return nil, ErrMissingPhone
	}

	lead := models.Lead{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		Source:    p.Source,
		Status:    models.LeadNew,
		CreatedAt: e.now().Format(dateLayout),
	}

	id, err := e.leads.InsertLead(ctx, lead)
	if err != nil {
		return nil, err
	}
	lead.ID = id

	if err := e.log(ctx, id, models.LeadActionCreated, fmt.Sprintf("Lead created from %s", lead.Source)); err != nil {
		return nil, err
	}
	return &lead, nil
}

// transition moves a lead to a new status and logs the change. Notes are
// appended onto the existing notes field, never replacing it.
func (e *LeadEngine) transition(ctx context.Context, lead *models.Lead, to models.LeadStatus, notes string, extra models.LeadUpdate) error {
	if !lead.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, lead.Status, to)
	}

	update := extra
	update.Status = &to
	if notes != "" {
		combined := models.AppendNotes(lead.Notes, notes)
		update.Notes = &combined
	}
	if err := e.leads.UpdateLead(ctx, lead.ID, update); err != nil {
		return err
	}
	return e.log(ctx, lead.ID, models.LeadActionStatusChange, fmt.Sprintf("%s -> %s", lead.Status, to))
}

// ScheduleFollowUp moves a lead to Follow-Up with a next-contact date.
func (e *LeadEngine) ScheduleFollowUp(ctx context.Context, leadID, date, notes string) error {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return err
	}
	if err := e.transition(ctx, lead, models.LeadFollowUp, notes, models.LeadUpdate{NextFollowUp: &date}); err != nil {
		return err
	}
	return e.log(ctx, leadID, models.LeadActionFollowUpSet, fmt.Sprintf("Next follow-up on %s", date))
}

// SendEstimate moves a lead to Estimate Sent and records the quoted value.
func (e *LeadEngine) SendEstimate(ctx context.Context, leadID string, amount float64, notes string) error {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return err
	}
	return e.transition(ctx, lead, models.LeadEstimate, notes, models.LeadUpdate{EstimateValue: &amount})
}

// MarkSold moves a lead to Sold.
func (e *LeadEngine) MarkSold(ctx context.Context, leadID, notes string) error {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return err
	}
	return e.transition(ctx, lead, models.LeadSold, notes, models.LeadUpdate{})
}

// MarkLost moves a lead to Lost and records why.
func (e *LeadEngine) MarkLost(ctx context.Context, leadID, reason, notes string) error {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return err
	}
	return e.transition(ctx, lead, models.LeadLost, notes, models.LeadUpdate{LossReason: &reason})
}

// ConversionDetails override lead fields when creating the customer.
type ConversionDetails struct {
	Address string              `json:"address,omitempty"`
	Type    models.CustomerType `json:"type,omitempty"`
	Machine *models.Machine     `json:"machine,omitempty"`
}

// ConvertToCustomer creates a customer from a sold lead, marks the lead
// Converted, and logs the new customer id. The new id is returned so the
// caller can refresh its view.
func (e *LeadEngine) ConvertToCustomer(ctx context.Context, leadID string, details ConversionDetails) (string, error) {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if !lead.Status.CanTransition(models.LeadConverted) {
		return "", fmt.Errorf("%w: status is %s", ErrNotSold, lead.Status)
	}

	address := lead.Address
	if details.Address != "" {
		address = details.Address
	}
	customerType := details.Type
	if customerType == "" {
		customerType = models.CustomerGuruInstalled
	}

	customer := models.Customer{
		Name:     lead.Name,
		Phone:    lead.Phone,
		Address:  address,
		Type:     customerType,
		Machines: []models.Machine{},
	}
	if details.Machine != nil {
		customer.Machines = append(customer.Machines, *details.Machine)
	}

	customerID, err := e.customers.InsertCustomer(ctx, customer)
	if err != nil {
		return "", err
	}

	status := models.LeadConverted
	if err := e.leads.UpdateLead(ctx, leadID, models.LeadUpdate{Status: &status}); err != nil {
		return "", err
	}
	if err := e.log(ctx, leadID, models.LeadActionConverted, fmt.Sprintf("Converted to customer %s", customerID)); err != nil {
		return "", err
	}
	return customerID, nil
}

// Delete removes a lead and its entire history log. Irreversible; the
// engine does not ask for confirmation.
func (e *LeadEngine) Delete(ctx context.Context, leadID string) error {
	return e.leads.DeleteLead(ctx, leadID)
}

// Update applies a generic partial update. A status change is validated
// against the transition table unless override is set (the admin escape
// hatch for manual corrections). Status and note changes are logged.
func (e *LeadEngine) Update(ctx context.Context, leadID string, update models.LeadUpdate, override bool) error {
	lead, err := e.leads.FindLeadByID(ctx, leadID)
	if err != nil {
		return err
	}

	if update.Status != nil && *update.Status != lead.Status && !override {
		if !lead.Status.CanTransition(*update.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, lead.Status, *update.Status)
		}
	}
	if err := e.leads.UpdateLead(ctx, leadID, update); err != nil {
		return err
	}

	if update.Status != nil && *update.Status != lead.Status {
		if err := e.log(ctx, leadID, models.LeadActionStatusChange, fmt.Sprintf("%s -> %s", lead.Status, *update.Status)); err != nil {
			return err
		}
	}
	if update.Notes != nil && *update.Notes != lead.Notes {
		if err := e.log(ctx, leadID, models.LeadActionNoteAdded, "Notes updated"); err != nil {
			return err
		}
	}
	if update.NextFollowUp != nil && *update.NextFollowUp != lead.NextFollowUp {
		if err := e.log(ctx, leadID, models.LeadActionFollowUpSet, fmt.Sprintf("Next follow-up on %s", *update.NextFollowUp)); err != nil {
			return err
		}
	}
	return nil
}
