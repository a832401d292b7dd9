package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB using the MONGO_URI environment variable.
func ConnectMongo() (*mongo.Client, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	MongoTicketCollection
	MongoLeadCollection
	MongoCustomerCollection
	MongoPartCollection
	MongoMachineTypeCollection
	MongoUserCollection
}

// NewMongoStore wires the per-aggregate collections of a database.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		MongoTicketCollection: MongoTicketCollection{
			Tickets: database.Collection("tickets"),
			History: database.Collection("assignment_history"),
		},
		MongoLeadCollection: MongoLeadCollection{
			Leads:   database.Collection("leads"),
			History: database.Collection("lead_history"),
		},
		MongoCustomerCollection:    MongoCustomerCollection{Collection: database.Collection("customers")},
		MongoPartCollection:        MongoPartCollection{Collection: database.Collection("parts")},
		MongoMachineTypeCollection: MongoMachineTypeCollection{Collection: database.Collection("machine_types")},
		MongoUserCollection:        MongoUserCollection{Collection: database.Collection("users")},
	}
}

// FetchAll performs the bulk read served at session start. Password
// hashes are stripped and the AMC expiry view is computed on the fly.
func (s *MongoStore) FetchAll(ctx context.Context) (*Snapshot, error) {
	tickets, err := s.FindTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	customers, err := s.FindCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}
	leads, err := s.FindLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch leads: %w", err)
	}
	parts, err := s.FindParts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch parts: %w", err)
	}
	machineTypes, err := s.FindMachineTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch machine types: %w", err)
	}
	users, err := s.FindUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

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
