package db

import (
	"context"

	"github.com/gurutech/guru-erp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLeadCollection implements LeadCollection for MongoDB
type MongoLeadCollection struct {
	Leads   *mongo.Collection
	History *mongo.Collection
}

// InsertLead inserts a new lead and returns its identifier.
func (c *MongoLeadCollection) InsertLead(ctx context.Context, lead models.Lead) (string, error) {
	if lead.ID == "" {
		lead.ID = primitive.NewObjectID().Hex()
	}
	if _, err := c.Leads.InsertOne(ctx, lead); err != nil {
		return "", err
	}
	return lead.ID, nil
}

// FindLeadByID finds a lead by its ID.
func (c *MongoLeadCollection) FindLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	var lead models.Lead
	err := c.Leads.FindOne(ctx, bson.M{"_id": id}).Decode(&lead)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// FindLeads returns all leads.
func (c *MongoLeadCollection) FindLeads(ctx context.Context) ([]models.Lead, error) {
	cursor, err := c.Leads.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// UpdateLead applies a partial update; only supplied fields are written.
func (c *MongoLeadCollection) UpdateLead(ctx context.Context, id string, update models.LeadUpdate) error {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	if update.NextFollowUp != nil {
		set["next_follow_up"] = *update.NextFollowUp
	}
	if update.EstimateValue != nil {
		set["estimate_value"] = *update.EstimateValue
	}
	if update.LossReason != nil {
		set["loss_reason"] = *update.LossReason
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if len(set) == 0 {
		return nil
	}

	result, err := c.Leads.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLead removes a lead together with its entire history log.
func (c *MongoLeadCollection) DeleteLead(ctx context.Context, id string) error {
	result, err := c.Leads.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = c.History.DeleteMany(ctx, bson.M{"lead_id": id})
	return err
}

// AppendLeadHistory appends one activity-log row for a lead.
func (c *MongoLeadCollection) AppendLeadHistory(ctx context.Context, entry models.LeadHistory) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	_, err := c.History.InsertOne(ctx, entry)
	return err
}

// FindLeadHistory returns a lead's activity log ordered by write time.
func (c *MongoLeadCollection) FindLeadHistory(ctx context.Context, leadID string) ([]models.LeadHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := c.History.Find(ctx, bson.M{"lead_id": leadID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	history := []models.LeadHistory{}
	if err := cursor.All(ctx, &history); err != nil {
		return nil, err
	}
	return history, nil
}
