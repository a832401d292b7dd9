package db

import (
	"context"
	"time"

	"github.com/gurutech/guru-erp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user. Email must be unique.
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) (string, error) {
	err := c.Collection.FindOne(ctx, bson.M{"email": user.Email}).Err()
	if err == nil {
		return "", ErrDuplicateEmail
	}
	if err != mongo.ErrNoDocuments {
		return "", err
	}

	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	if _, err := c.Collection.InsertOne(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUsers returns all users.
func (c *MongoUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser replaces a user in the database
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	user.ID = id
	user.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, user)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser deletes a user. Deleting the last remaining admin is
// rejected so the system can never lock itself out.
func (c *MongoUserCollection) DeleteUser(ctx context.Context, id string) error {
	user, err := c.FindUserByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		admins, err := c.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	_, err = c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	_, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}

// CountAdmins counts users holding the Admin role.
func (c *MongoUserCollection) CountAdmins(ctx context.Context) (int64, error) {
	return c.Collection.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
}
