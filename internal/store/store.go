// Package store persists an audit record for every completed live move.
package store

import (
	"context"
	"time"

	"issue-move-bot/internal/config"
	"issue-move-bot/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MoveRecord documents one completed move.
type MoveRecord struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	SourceOwner  string        `bson:"source_owner"`
	SourceRepo   string        `bson:"source_repo"`
	SourceNumber int           `bson:"source_number"`
	TargetOwner  string        `bson:"target_owner"`
	TargetRepo   string        `bson:"target_repo"`
	TargetNumber int           `bson:"target_number"`
	User         string        `bson:"user"`
	MovedAt      time.Time     `bson:"moved_at"`
}

type Store struct {
	Client *mongo.Client
	Moves  *mongo.Collection
}

func Connect(cfg *config.Config) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.MongoDBURI)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Client: client,
		Moves:  client.Database(cfg.DatabaseName).Collection("moves"),
	}

	if err := s.createIndexes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.Moves.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "source_owner", Value: 1},
			{Key: "source_repo", Value: 1},
			{Key: "source_number", Value: 1},
		},
	})
	return err
}

// RecordMove inserts the audit record for a completed move.
func (s *Store) RecordMove(ctx context.Context, source models.IssueRef, target models.IssueRef, user string) error {
	rec := &MoveRecord{
		SourceOwner:  source.Owner,
		SourceRepo:   source.Repo,
		SourceNumber: source.Number,
		TargetOwner:  target.Owner,
		TargetRepo:   target.Repo,
		TargetNumber: target.Number,
		User:         user,
		MovedAt:      time.Now().UTC(),
	}
	_, err := s.Moves.InsertOne(ctx, rec)
	return err
}

// RecentMoves returns the latest recorded moves, newest first.
func (s *Store) RecentMoves(ctx context.Context, limit int64) ([]MoveRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "moved_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.Moves.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var records []MoveRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
