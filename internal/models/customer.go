package models

// CustomerType distinguishes customers whose machine we installed from
// ones we only service
type CustomerType string

const (
	CustomerGuruInstalled CustomerType = "Guru-Installed"
	CustomerServiceOnly   CustomerType = "Service-Only"
)

// Machine is a purifier unit owned by a customer. Tickets reference
// machines by model string only, so edits here do not cascade to ticket
// history.
type Machine struct {
	ID               string `bson:"id,omitempty" json:"id"`
	ModelNo          string `bson:"model_no" json:"modelNo"`
	InstallationDate string `bson:"installation_date" json:"installationDate"`
	WarrantyExpiry   string `bson:"warranty_expiry" json:"warrantyExpiry"`
	AMCActive        bool   `bson:"amc_active" json:"amcActive"`
	AMCExpiry        string `bson:"amc_expiry,omitempty" json:"amcExpiry,omitempty"`
}

// Customer represents a registered customer and their machines. Customers
// are created directly or by converting a lead, and are never deleted.
type Customer struct {
	ID       string       `bson:"_id,omitempty" json:"id"`
	Name     string       `bson:"name" json:"name"`
	Phone    string       `bson:"phone" json:"phone"`
	Address  string       `bson:"address" json:"address"`
	Type     CustomerType `bson:"type" json:"type"`
	Machines []Machine    `bson:"machines" json:"machines"`
}

// AMCExpiry is a derived dashboard entry for a machine whose annual
// maintenance contract expires soon. DaysRemaining is negative when the
// contract is already overdue.
type AMCExpiry struct {
	CustomerID    string `bson:"customer_id" json:"customerId"`
	CustomerName  string `bson:"customer_name" json:"customerName"`
	MachineModel  string `bson:"machine_model" json:"machineModel"`
	ExpiryDate    string `bson:"expiry_date" json:"expiryDate"`
	DaysRemaining int    `bson:"days_remaining" json:"daysRemaining"`
}
