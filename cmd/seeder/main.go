package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/gurutech/guru-erp/internal/engine"
	"github.com/gurutech/guru-erp/internal/models"
	"github.com/gurutech/guru-erp/internal/sync"
)

// Seeds a running server with demo data: catalog, inventory, staff,
// customers, and one ticket and one lead walked through their full
// lifecycles. Safe to point at an empty database only; it does not
// check for existing records.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	email := os.Getenv("SEED_EMAIL")
	if email == "" {
		email = "admin@gurutech.in"
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gw := sync.NewHTTPGateway(apiURL, "")
	admin, err := gw.Login(ctx, email, password)
	if err != nil {
		log.WithError(err).Fatal("Login failed")
	}
	log.WithFields(log.Fields{"api_url": apiURL, "user": admin.Email}).Info("Logged in")

	seedCatalog(ctx, gw)
	partID := seedParts(ctx, gw)
	techID := seedStaff(ctx, gw)
	customerID := seedCustomers(ctx, gw)
	seedTicketLifecycle(ctx, gw, customerID, techID, partID)
	seedLeadPipeline(ctx, gw)

	log.Info("Seeding completed")
}

func seedCatalog(ctx context.Context, gw *sync.HTTPGateway) {
	types := []models.MachineType{
		{ModelName: "AquaPure 500", Description: "5-stage RO under-sink unit", WarrantyMonths: 12, Price: 15500},
		{ModelName: "AquaPure 900 UV", Description: "RO+UV wall-mounted unit", WarrantyMonths: 18, Price: 21000},
	}
	for _, mt := range types {
		id, err := gw.InsertMachineType(ctx, mt)
		if err != nil {
			log.WithError(err).WithField("model", mt.ModelName).Error("Failed to create machine type")
			continue
		}
		log.WithFields(log.Fields{"id": id, "model": mt.ModelName}).Info("Created machine type")
	}
}

func seedParts(ctx context.Context, gw *sync.HTTPGateway) string {
	parts := []models.Part{
		{Name: "Sediment Filter", Category: "Filter", Price: 250, WarrantyMonths: 6, StockQuantity: 40},
		{Name: "Carbon Filter", Category: "Filter", Price: 350, WarrantyMonths: 6, StockQuantity: 35},
		{Name: "RO Membrane", Category: "Membrane", Price: 1800, WarrantyMonths: 12, StockQuantity: 12},
		{Name: "UV Lamp", Category: "Electrical", Price: 900, WarrantyMonths: 12, StockQuantity: 6},
		{Name: "Booster Pump", Category: "Electrical", Price: 2400, WarrantyMonths: 12, StockQuantity: 15},
	}
	var firstID string
	for _, part := range parts {
		id, err := gw.InsertPart(ctx, part)
		if err != nil {
			log.WithError(err).WithField("part", part.Name).Error("Failed to create part")
			continue
		}
		if firstID == "" {
			firstID = id
		}
		log.WithFields(log.Fields{"id": id, "part": part.Name}).Info("Created part")
	}
	return firstID
}

func seedStaff(ctx context.Context, gw *sync.HTTPGateway) string {
	users := []models.User{
		{Name: "Suresh Kumar", Email: "suresh@gurutech.in", Role: models.RoleManager, Phone: "9840012345"},
		{Name: "Ravi Shankar", Email: "ravi@gurutech.in", Role: models.RoleTechnician, Phone: "9840023456"},
		{Name: "Mani Velu", Email: "mani@gurutech.in", Role: models.RoleTechnician, Phone: "9840034567"},
	}
	var techID string
	for _, user := range users {
		user.Status = models.UserActive
		user.PasswordHash = "welcome123" // sent as plain password, hashed server-side
		id, err := gw.InsertUser(ctx, user)
		if err != nil {
			log.WithError(err).WithField("email", user.Email).Error("Failed to create user")
			continue
		}
		if user.Role == models.RoleTechnician && techID == "" {
			techID = id
		}
		log.WithFields(log.Fields{"id": id, "email": user.Email, "role": user.Role}).Info("Created user")
	}
	return techID
}

func seedCustomers(ctx context.Context, gw *sync.HTTPGateway) string {
	customers := []models.Customer{
		{Name: "Hotel Saravana", Phone: "9884011111", Address: "12 Anna Salai, Madurai", Type: models.CustomerGuruInstalled},
		{Name: "Lakshmi Timber Depot", Phone: "9884022222", Address: "4 Bypass Road, Madurai", Type: models.CustomerServiceOnly},
		{Name: "R. Ganesan", Phone: "9884033333", Address: "22 KK Nagar, Madurai", Type: models.CustomerGuruInstalled},
	}
	var firstID string
	for i, customer := range customers {
		id, err := gw.InsertCustomer(ctx, customer)
		if err != nil {
			log.WithError(err).WithField("customer", customer.Name).Error("Failed to create customer")
			continue
		}
		if firstID == "" {
			firstID = id
		}
		log.WithFields(log.Fields{"id": id, "customer": customer.Name}).Info("Created customer")

		if customer.Type == models.CustomerGuruInstalled {
			machine := models.Machine{
				ModelNo:          "AquaPure 500",
				InstallationDate: time.Now().AddDate(0, -6-i, 0).Format("2006-01-02"),
				WarrantyExpiry:   time.Now().AddDate(0, 6, 0).Format("2006-01-02"),
				AMCActive:        true,
				AMCExpiry:        time.Now().AddDate(0, 0, 20+10*i).Format("2006-01-02"),
			}
			machineID, err := gw.AddMachine(ctx, id, machine)
			if err != nil {
				log.WithError(err).Error("Failed to add machine")
				continue
			}
			log.WithFields(log.Fields{"machine_id": machineID, "customer_id": id}).Info("Added machine")
		}
	}
	return firstID
}

func seedTicketLifecycle(ctx context.Context, gw *sync.HTTPGateway, customerID, techID, partID string) {
	if customerID == "" || techID == "" {
		log.Warn("Skipping ticket lifecycle, missing customer or technician")
		return
	}

	ticketID, err := gw.InsertTicket(ctx, models.Ticket{
		CustomerID:    customerID,
		Type:          models.ServiceRepair,
		Description:   "Low output pressure, likely clogged membrane",
		Priority:      PriorityFor(2),
		ScheduledDate: time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create ticket")
	}
	log.WithField("ticket_id", ticketID).Info("Created ticket")

	steps := []struct {
		name string
		run  func() error
	}{
		{"assign", func() error {
			return gw.AssignTicket(ctx, ticketID, techID, time.Now().AddDate(0, 0, 2).Format("2006-01-02"))
		}},
		{"start", func() error { return gw.StartTicket(ctx, ticketID) }},
		{"complete", func() error {
			return gw.CompleteTicket(ctx, ticketID, engine.CompleteParams{
				Items:         []engine.ConsumedItem{{PartID: partID, Quantity: 1}},
				ServiceCharge: 200,
				PaymentMode:   models.PaymentUPI,
				Notes:         "Replaced filter, flushed system",
			})
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			log.WithError(err).WithField("step", step.name).Error("Ticket lifecycle step failed")
			return
		}
		log.WithFields(log.Fields{"ticket_id": ticketID, "step": step.name}).Info("Ticket lifecycle step")
	}
}

func seedLeadPipeline(ctx context.Context, gw *sync.HTTPGateway) {
	leads := []models.Lead{
		{Name: "Dr. Priya Raman", Phone: "9884044444", Source: "Walk-in"},
		{Name: "Meenakshi Stores", Phone: "9884055555", Source: "Referral"},
		{Name: "K. Selvam", Phone: "9884066666", Source: "Phone"},
	}
	var soldID string
	for _, lead := range leads {
		id, err := gw.InsertLead(ctx, lead)
		if err != nil {
			log.WithError(err).WithField("lead", lead.Name).Error("Failed to create lead")
			continue
		}
		if soldID == "" {
			soldID = id
		}
		log.WithFields(log.Fields{"id": id, "lead": lead.Name}).Info("Created lead")
	}
	if soldID == "" {
		return
	}

	sold := models.LeadSold
	notes := "Agreed on AquaPure 900 UV at list price"
	if err := gw.UpdateLead(ctx, soldID, models.LeadUpdate{Status: &sold, Notes: &notes}); err != nil {
		log.WithError(err).Error("Failed to mark lead sold")
		return
	}
	customerID, err := gw.ConvertLead(ctx, soldID, engine.ConversionDetails{
		Address: "7 Temple Street, Madurai",
		Type:    models.CustomerGuruInstalled,
	})
	if err != nil {
		log.WithError(err).Error("Failed to convert lead")
		return
	}
	log.WithFields(log.Fields{"lead_id": soldID, "customer_id": customerID}).Info("Converted lead to customer")
}

// PriorityFor maps a numeric urgency to a ticket priority.
func PriorityFor(level int) models.TicketPriority {
	switch {
	case level >= 3:
		return models.PriorityUrgent
	case level == 2:
		return models.PriorityHigh
	case level == 1:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
