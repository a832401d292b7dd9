package db

import (
	"context"

	"github.com/gurutech/guru-erp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCustomerCollection implements CustomerCollection for MongoDB.
// Machines are embedded in the customer document.
type MongoCustomerCollection struct {
	Collection *mongo.Collection
}

// InsertCustomer inserts a new customer and returns its identifier.
// Phone is the unique business key in practice.
func (c *MongoCustomerCollection) InsertCustomer(ctx context.Context, customer models.Customer) (string, error) {
	err := c.Collection.FindOne(ctx, bson.M{"phone": customer.Phone}).Err()
	if err == nil {
		return "", ErrDuplicatePhone
	}
	if err != mongo.ErrNoDocuments {
		return "", err
	}

	if customer.ID == "" {
		customer.ID = primitive.NewObjectID().Hex()
	}
	if customer.Machines == nil {
		customer.Machines = []models.Machine{}
	}
	for i := range customer.Machines {
		if customer.Machines[i].ID == "" {
			customer.Machines[i].ID = primitive.NewObjectID().Hex()
		}
	}
	if _, err := c.Collection.InsertOne(ctx, customer); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// FindCustomerByID finds a customer by its ID.
func (c *MongoCustomerCollection) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindCustomers returns all customers with their machines embedded.
func (c *MongoCustomerCollection) FindCustomers(ctx context.Context) ([]models.Customer, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	customers := []models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// AddMachine appends a machine to a customer and returns the machine id
// assigned by the store.
func (c *MongoCustomerCollection) AddMachine(ctx context.Context, customerID string, machine models.Machine) (string, error) {
	if machine.ID == "" {
		machine.ID = primitive.NewObjectID().Hex()
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{"$push": bson.M{"machines": machine}},
	)
	if err != nil {
		return "", err
	}
	if result.MatchedCount == 0 {
		return "", ErrNotFound
	}
	return machine.ID, nil
}

// UpdateMachine replaces a machine entry in place. Historical tickets
// reference machines by model string, so they are unaffected.
func (c *MongoCustomerCollection) UpdateMachine(ctx context.Context, customerID string, machine models.Machine) error {
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": customerID, "machines.id": machine.ID},
		bson.M{"$set": bson.M{"machines.$": machine}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMachine removes a machine from a customer.
func (c *MongoCustomerCollection) DeleteMachine(ctx context.Context, customerID, machineID string) error {
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": customerID},
		bson.M{"$pull": bson.M{"machines": bson.M{"id": machineID}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
