package db

import "github.com/gurutech/guru-erp/internal/models"

// NewFallbackStore returns a memory store pre-seeded with the demo
// dataset used when the server is unreachable at session start. The
// session keeps working against it but nothing is persisted.
func NewFallbackStore() *MemoryStore {
	s := NewMemoryStore()
	s.seq = 100 // keep generated ids clear of the fixed demo ids

	s.parts = []models.Part{
		{ID: "p1", Name: "RO Membrane 100GPD", Category: "Filters", Price: 1200, WarrantyMonths: 12, StockQuantity: 12},
		{ID: "p2", Name: "Sediment Filter", Category: "Filters", Price: 350, WarrantyMonths: 0, StockQuantity: 40},
		{ID: "p3", Name: "Carbon Filter", Category: "Filters", Price: 400, WarrantyMonths: 0, StockQuantity: 35},
		{ID: "p4", Name: "Booster Pump", Category: "Motors", Price: 2500, WarrantyMonths: 12, StockQuantity: 6},
		{ID: "p5", Name: "UV Lamp", Category: "Electronics", Price: 800, WarrantyMonths: 6, StockQuantity: 15},
	}

	s.customers = []models.Customer{
		{
			ID: "c1", Name: "Anitha Kumar", Phone: "9876543210",
			Address: "12, North St, Madurai", Type: models.CustomerGuruInstalled,
			Machines: []models.Machine{{
				ID: "m1", ModelNo: "GURU-RO-PRO",
				InstallationDate: "2023-05-15", WarrantyExpiry: "2024-05-15",
				AMCActive: true, AMCExpiry: "2025-05-15",
			}},
		},
		{
			ID: "c2", Name: "Hotel Saravana", Phone: "9988776655",
			Address: "45, Bypass Road, Madurai", Type: models.CustomerServiceOnly,
			Machines: []models.Machine{{
				ID: "m2", ModelNo: "KENT-PEARL",
				InstallationDate: "2022-01-10", WarrantyExpiry: "2023-01-10",
			}},
		},
		{
			ID: "c3", Name: "Ravi Verma", Phone: "9123456780",
			Address: "88, Lake View, Madurai", Type: models.CustomerGuruInstalled,
			Machines: []models.Machine{{
				ID: "m3", ModelNo: "GURU-SLIM",
				InstallationDate: "2024-01-20", WarrantyExpiry: "2025-01-20",
			}},
		},
	}

	s.tickets = []models.Ticket{
		{
			ID: "t1", CustomerID: "c1", CustomerName: "Anitha Kumar",
			Type: models.ServiceAMC, Description: "Quarterly routine service",
			Priority: models.PriorityMedium, Status: models.TicketPending,
			ScheduledDate: "2024-06-20", ItemsUsed: []models.ServiceItem{},
		},
		{
			ID: "t2", CustomerID: "c2", CustomerName: "Hotel Saravana",
			Type: models.ServiceRepair, Description: "Motor making loud noise",
			Priority: models.PriorityUrgent, Status: models.TicketAssigned,
			AssignedTechnicianID: "u2", ScheduledDate: "2024-06-18",
			ItemsUsed: []models.ServiceItem{},
		},
		{
			ID: "t3", CustomerID: "c1", CustomerName: "Anitha Kumar",
			Type: models.ServiceRepair, Description: "Leakage from tap",
			Priority: models.PriorityHigh, Status: models.TicketCompleted,
			AssignedTechnicianID: "u3", ScheduledDate: "2024-06-10",
			CompletedDate: "2024-06-10",
			ItemsUsed:     []models.ServiceItem{{PartID: "p2", Quantity: 1, Cost: 350}},
			ServiceCharge: 200, TotalAmount: 550,
			TechnicianNotes: "Replaced washer and filter", NextFollowUp: "2024-09-10",
		},
	}

	s.leads = []models.Lead{
		{ID: "l1", Name: "New Resident A", Phone: "1231231234", Source: "Referral", Status: models.LeadNew, Notes: "Interested in RO", CreatedAt: "2024-06-15"},
		{ID: "l2", Name: "Office B", Phone: "3213214321", Source: "Web", Status: models.LeadEstimate, Notes: "Sent quote for commercial plant", CreatedAt: "2024-06-10", EstimateValue: 15000},
		{ID: "l3", Name: "Dr. Priya", Phone: "9898989898", Source: "Walk-in", Status: models.LeadFollowUp, Notes: "Call back next week", CreatedAt: "2024-06-12", NextFollowUp: "2024-06-25"},
	}

	s.users = []models.User{
		{ID: "u1", Name: "Admin User", Email: "admin@gurutech.in", Role: models.RoleAdmin, Status: models.UserActive},
		{ID: "u2", Name: "Ramesh Tech", Email: "ramesh@gurutech.in", Role: models.RoleTechnician, Status: models.UserActive},
		{ID: "u3", Name: "Suresh Tech", Email: "suresh@gurutech.in", Role: models.RoleTechnician, Status: models.UserActive},
		{ID: "u4", Name: "Manager Boss", Email: "manager@gurutech.in", Role: models.RoleManager, Status: models.UserActive},
	}

	s.machineTypes = []models.MachineType{
		{ID: "mt1", ModelName: "GURU-RO-PRO", Description: "8-stage RO+UV purifier", WarrantyMonths: 12, Price: 15500},
		{ID: "mt2", ModelName: "GURU-SLIM", Description: "Compact wall-mount RO", WarrantyMonths: 12, Price: 10900},
	}

	return s
}
