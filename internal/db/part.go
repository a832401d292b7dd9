package db

import (
	"context"

	"github.com/gurutech/guru-erp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPartCollection implements PartCollection for MongoDB
type MongoPartCollection struct {
	Collection *mongo.Collection
}

// InsertPart inserts a new part and returns its identifier.
func (c *MongoPartCollection) InsertPart(ctx context.Context, part models.Part) (string, error) {
	if part.ID == "" {
		part.ID = primitive.NewObjectID().Hex()
	}
	if _, err := c.Collection.InsertOne(ctx, part); err != nil {
		return "", err
	}
	return part.ID, nil
}

// FindPartByID finds a part by its ID.
func (c *MongoPartCollection) FindPartByID(ctx context.Context, id string) (*models.Part, error) {
	var part models.Part
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&part)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// FindParts returns all parts.
func (c *MongoPartCollection) FindParts(ctx context.Context) ([]models.Part, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	parts := []models.Part{}
	if err := cursor.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// UpdatePart replaces a part by its ID.
func (c *MongoPartCollection) UpdatePart(ctx context.Context, id string, part models.Part) error {
	part.ID = id
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, part)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStockQuantity writes a part's stock level.
func (c *MongoPartCollection) SetStockQuantity(ctx context.Context, id string, quantity int) error {
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stock_quantity": quantity}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoMachineTypeCollection implements MachineTypeCollection for MongoDB
type MongoMachineTypeCollection struct {
	Collection *mongo.Collection
}

// InsertMachineType inserts a catalog entry and returns its identifier.
func (c *MongoMachineTypeCollection) InsertMachineType(ctx context.Context, mt models.MachineType) (string, error) {
	if mt.ID == "" {
		mt.ID = primitive.NewObjectID().Hex()
	}
	if _, err := c.Collection.InsertOne(ctx, mt); err != nil {
		return "", err
	}
	return mt.ID, nil
}

// FindMachineTypes returns the machine catalog.
func (c *MongoMachineTypeCollection) FindMachineTypes(ctx context.Context) ([]models.MachineType, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	types := []models.MachineType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	return types, nil
}
