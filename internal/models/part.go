package models

// Part is a spare part in the inventory. StockQuantity is floored at zero
// by the inventory adjustment logic.
type Part struct {
	ID             string  `bson:"_id,omitempty" json:"id"`
	Name           string  `bson:"name" json:"name"`
	Category       string  `bson:"category" json:"category"`
	Price          float64 `bson:"price" json:"price"`
	WarrantyMonths int     `bson:"warranty_months" json:"warrantyMonths"`
	StockQuantity  int     `bson:"stock_quantity" json:"stockQuantity"`
}

// MachineType is a catalog entry used to pre-fill warranty math when a
// machine is registered. Not referenced after registration.
type MachineType struct {
	ID             string  `bson:"_id,omitempty" json:"id"`
	ModelName      string  `bson:"model_name" json:"modelName"`
	Description    string  `bson:"description" json:"description"`
	WarrantyMonths int     `bson:"warranty_months" json:"warrantyMonths"`
	Price          float64 `bson:"price" json:"price"`
}
