package db

import (
	"context"

	"github.com/gurutech/guru-erp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTicketCollection implements TicketCollection for MongoDB
type MongoTicketCollection struct {
	Tickets *mongo.Collection
	History *mongo.Collection
}

// InsertTicket inserts a new ticket and returns its identifier.
func (c *MongoTicketCollection) InsertTicket(ctx context.Context, ticket models.Ticket) (string, error) {
	if ticket.ID == "" {
		ticket.ID = primitive.NewObjectID().Hex()
	}
	if ticket.ItemsUsed == nil {
		ticket.ItemsUsed = []models.ServiceItem{}
	}
	if _, err := c.Tickets.InsertOne(ctx, ticket); err != nil {
		return "", err
	}
	return ticket.ID, nil
}

// FindTicketByID finds a ticket by its ID.
func (c *MongoTicketCollection) FindTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := c.Tickets.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FindTickets returns all tickets.
func (c *MongoTicketCollection) FindTickets(ctx context.Context) ([]models.Ticket, error) {
	cursor, err := c.Tickets.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tickets := []models.Ticket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateTicket applies a partial update; only supplied fields are written.
func (c *MongoTicketCollection) UpdateTicket(ctx context.Context, id string, update models.TicketUpdate) error {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.AssignedTechnicianID != nil {
		set["assigned_technician_id"] = *update.AssignedTechnicianID
	}
	if update.ScheduledDate != nil {
		set["scheduled_date"] = *update.ScheduledDate
	}
	if update.ItemsUsed != nil {
		set["items_used"] = *update.ItemsUsed
	}
	if update.ServiceCharge != nil {
		set["service_charge"] = *update.ServiceCharge
	}
	if update.TotalAmount != nil {
		set["total_amount"] = *update.TotalAmount
	}
	if update.CompletedDate != nil {
		set["completed_date"] = *update.CompletedDate
	}
	if update.PaymentMode != nil {
		set["payment_mode"] = *update.PaymentMode
	}
	if update.TechnicianNotes != nil {
		set["technician_notes"] = *update.TechnicianNotes
	}
	if update.NextFollowUp != nil {
		set["next_follow_up"] = *update.NextFollowUp
	}
	if update.CancellationReason != nil {
		set["cancellation_reason"] = *update.CancellationReason
	}
	if len(set) == 0 {
		return nil
	}

	result, err := c.Tickets.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendAssignment appends one assignment-history row. Rows are never
// updated or removed afterwards.
func (c *MongoTicketCollection) AppendAssignment(ctx context.Context, entry models.AssignmentHistory) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	_, err := c.History.InsertOne(ctx, entry)
	return err
}

// FindAssignmentHistory returns a ticket's assignment log ordered by
// assignment time.
func (c *MongoTicketCollection) FindAssignmentHistory(ctx context.Context, ticketID string) ([]models.AssignmentHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}})
	cursor, err := c.History.Find(ctx, bson.M{"ticket_id": ticketID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	history := []models.AssignmentHistory{}
	if err := cursor.All(ctx, &history); err != nil {
		return nil, err
	}
	return history, nil
}
