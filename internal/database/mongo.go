package database

import (
	"context"
	"fmt"

	"github.com/abcdjack1/todolist/internal/config"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens the document store and returns the task collection.
// The caller owns the client and must Disconnect it.
func ConnectMongo(ctx context.Context, cfg *config.Config, l *log.Logger) (*mongo.Client, *mongo.Collection, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetTimeout(cfg.DBTimeout).
		SetServerSelectionTimeout(cfg.DBTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	l.WithFields(log.Fields{
		"database":   cfg.MongoDatabase,
		"collection": cfg.MongoCollection,
	}).Info("Mongo connection established")
	return client, coll, nil
}

// MigrateMongo creates the indexes behind the two list queries.
func MigrateMongo(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "completed", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_tasks_completed_order"),
		},
		{
			Keys:    bson.D{{Key: "completed", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_tasks_completed_updated"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	return nil
}
