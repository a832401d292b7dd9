package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurutech/guru-erp/internal/db"
	"github.com/gurutech/guru-erp/internal/models"
)

func newLeadFixture(t *testing.T) (*LeadEngine, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	return NewLeadEngine(store, store), store
}

func TestLeadEngine_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("registers lead in New with a Created log entry", func(t *testing.T) {
		engine, store := newLeadFixture(t)

		lead, err := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in",
		})
		assert.NoError(t, err)
		assert.Equal(t, models.LeadNew, lead.Status)
		assert.NotEmpty(t, lead.CreatedAt)

		history, _ := store.FindLeadHistory(ctx, lead.ID)
		if assert.Len(t, history, 1) {
			assert.Equal(t, models.LeadActionCreated, history[0].Action)
			assert.Equal(t, "Lead created from Walk-in", history[0].Details)
		}
	})

	t.Run("requires name and phone", func(t *testing.T) {
		engine, _ := newLeadFixture(t)
		_, err := engine.Create(ctx, CreateLeadParams{Phone: "9884044444"})
		assert.ErrorIs(t, err, ErrMissingName)
		_, err = engine.Create(ctx, CreateLeadParams{Name: "Anonymous"})
		assert.ErrorIs(t, err, ErrMissingPhone)
	})
}

func TestLeadEngine_ScheduleFollowUp(t *testing.T) {
	ctx := context.Background()

	t.Run("moves to Follow-Up and logs both entries", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in",
		})

		err := engine.ScheduleFollowUp(ctx, lead.ID, "2024-06-25", "Prefers a morning call")
		assert.NoError(t, err)

		updated, _ := store.FindLeadByID(ctx, lead.ID)
		assert.Equal(t, models.LeadFollowUp, updated.Status)
		assert.Equal(t, "2024-06-25", updated.NextFollowUp)
		assert.Equal(t, "Prefers a morning call", updated.Notes)

		history, _ := store.FindLeadHistory(ctx, lead.ID)
		if assert.Len(t, history, 3) {
			assert.Equal(t, models.LeadActionCreated, history[0].Action)
			assert.Equal(t, models.LeadActionStatusChange, history[1].Action)
			assert.Equal(t, "New -> Follow-Up", history[1].Details)
			assert.Equal(t, models.LeadActionFollowUpSet, history[2].Action)
			assert.Equal(t, "Next follow-up on 2024-06-25", history[2].Details)
		}
	})

	t.Run("reschedules a pending follow-up", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in",
		})
		assert.NoError(t, engine.ScheduleFollowUp(ctx, lead.ID, "2024-06-25", "Prefers a morning call"))

		err := engine.ScheduleFollowUp(ctx, lead.ID, "2024-07-02", "Out of town this week")
		assert.NoError(t, err)

		updated, _ := store.FindLeadByID(ctx, lead.ID)
		assert.Equal(t, models.LeadFollowUp, updated.Status)
		assert.Equal(t, "2024-07-02", updated.NextFollowUp)
		assert.Equal(t, "Prefers a morning call\nOut of town this week", updated.Notes)

		history, _ := store.FindLeadHistory(ctx, lead.ID)
		if assert.Len(t, history, 5) {
			assert.Equal(t, "Next follow-up on 2024-07-02", history[4].Details)
		}
	})
}

func TestLeadEngine_Pipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline appends notes instead of replacing", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Meenakshi Stores", Phone: "9884055555", Source: "Referral",
		})

		assert.NoError(t, engine.ScheduleFollowUp(ctx, lead.ID, "2024-06-25", "Asked for a brochure"))
		assert.NoError(t, engine.SendEstimate(ctx, lead.ID, 21000, "Quoted AquaPure 900 UV"))
		assert.NoError(t, engine.MarkSold(ctx, lead.ID, "Approved by owner"))

		updated, _ := store.FindLeadByID(ctx, lead.ID)
		assert.Equal(t, models.LeadSold, updated.Status)
		assert.Equal(t, 21000.0, updated.EstimateValue)
		assert.Equal(t, "Asked for a brochure\nQuoted AquaPure 900 UV\nApproved by owner", updated.Notes)
	})

	t.Run("rejects backward transitions", func(t *testing.T) {
		engine, _ := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "K. Selvam", Phone: "9884066666", Source: "Phone",
		})
		assert.NoError(t, engine.SendEstimate(ctx, lead.ID, 15500, ""))

		err := engine.ScheduleFollowUp(ctx, lead.ID, "2024-07-01", "")
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("lost lead records reason and is terminal", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "K. Selvam", Phone: "9884066666", Source: "Phone",
		})
		assert.NoError(t, engine.MarkLost(ctx, lead.ID, "Bought a competitor unit", ""))

		updated, _ := store.FindLeadByID(ctx, lead.ID)
		assert.Equal(t, models.LeadLost, updated.Status)
		assert.Equal(t, "Bought a competitor unit", updated.LossReason)

		err := engine.MarkSold(ctx, lead.ID, "")
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})
}

func TestLeadEngine_ConvertToCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("sold lead becomes a customer", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in", Address: "3 Gandhi Road",
		})
		assert.NoError(t, engine.MarkSold(ctx, lead.ID, ""))

		customerID, err := engine.ConvertToCustomer(ctx, lead.ID, ConversionDetails{
			Type: models.CustomerGuruInstalled,
			Machine: &models.Machine{
				ModelNo: "AquaPure 900 UV", InstallationDate: "2024-06-30",
				WarrantyExpiry: "2025-12-30", AMCActive: true, AMCExpiry: "2025-06-30",
			},
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, customerID)

		customer, err := store.FindCustomerByID(ctx, customerID)
		assert.NoError(t, err)
		assert.Equal(t, "Dr. Priya Raman", customer.Name)
		assert.Equal(t, "9884044444", customer.Phone)
		assert.Equal(t, "3 Gandhi Road", customer.Address)
		if assert.Len(t, customer.Machines, 1) {
			assert.Equal(t, "AquaPure 900 UV", customer.Machines[0].ModelNo)
		}

		updated, _ := store.FindLeadByID(ctx, lead.ID)
		assert.Equal(t, models.LeadConverted, updated.Status)

		history, _ := store.FindLeadHistory(ctx, lead.ID)
		last := history[len(history)-1]
		assert.Equal(t, models.LeadActionConverted, last.Action)
		assert.Contains(t, last.Details, customerID)
	})

	t.Run("details override the lead address", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Meenakshi Stores", Phone: "9884055555", Source: "Referral", Address: "Old address",
		})
		assert.NoError(t, engine.MarkSold(ctx, lead.ID, ""))

		customerID, err := engine.ConvertToCustomer(ctx, lead.ID, ConversionDetails{
			Address: "7 Temple Street, Madurai",
		})
		assert.NoError(t, err)

		customer, _ := store.FindCustomerByID(ctx, customerID)
		assert.Equal(t, "7 Temple Street, Madurai", customer.Address)
		assert.Equal(t, models.CustomerGuruInstalled, customer.Type) // default
	})

	t.Run("unsold lead cannot convert", func(t *testing.T) {
		engine, _ := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "K. Selvam", Phone: "9884066666", Source: "Phone",
		})

		_, err := engine.ConvertToCustomer(ctx, lead.ID, ConversionDetails{})
		assert.ErrorIs(t, err, ErrNotSold)
	})
}

func TestLeadEngine_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("illegal status change rejected without override", func(t *testing.T) {
		engine, _ := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in",
		})

		converted := models.LeadConverted
		err := engine.Update(ctx, lead.ID, models.LeadUpdate{Status: &converted}, false)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})

	t.Run("override forces the change and still logs it", func(t *testing.T) {
		engine, store := newLeadFixture(t)
		lead, _ := engine.Create(ctx, CreateLeadParams{
			Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in",
		})

		lost := models.LeadLost
		assert.NoError(t, engine.Update(ctx, lead.ID, models.LeadUpdate{Status: &lost}, true))

		sold := models.LeadSold
		assert.NoError(t, engine.Update(ctx, lead.ID, models.LeadUpdate{Status: &sold}, true))

		history, _ := store.FindLeadHistory(ctx, lead.ID)
		assert.Len(t, history, 3) // Created + two forced changes
	})
}

func TestLeadEngine_Delete(t *testing.T) {
	ctx := context.Background()
	engine, store := newLeadFixture(t)

	lead, _ := engine.Create(ctx, CreateLeadParams{
		Name: "K. Selvam", Phone: "9884066666", Source: "Phone",
	})
	assert.NoError(t, engine.Delete(ctx, lead.ID))

	_, err := store.FindLeadByID(ctx, lead.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	history, _ := store.FindLeadHistory(ctx, lead.ID)
	assert.Empty(t, history)
}
