package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const scoresCollection = "scores"

type scoreDocument struct {
	ProfileID string `bson:"_id"`
	X         int    `bson:"x"`
	O         int    `bson:"o"`
	Draws     int    `bson:"draws"`
}

type mongoScore struct {
	collection *mongo.Collection
}

func NewMongoScoreRepository(database *mongo.Database) ScoreRepository {
	return &mongoScore{
		collection: database.Collection(scoresCollection),
	}
}

func (that *mongoScore) Save(ctx context.Context, profileID string, score entity.Score) error {
	doc := scoreDocument{
		ProfileID: profileID,
		X:         score.X,
		O:         score.O,
		Draws:     score.Draws,
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := that.collection.ReplaceOne(ctx, bson.M{"_id": profileID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}

	return nil
}

func (that *mongoScore) Load(ctx context.Context, profileID string) (entity.Score, error) {
	res := that.collection.FindOne(ctx, bson.M{"_id": profileID})

	err := res.Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.Score{}, ErrScoreNotFound
	}

	if err != nil {
		return entity.Score{}, fmt.Errorf("failed to find score: %w", err)
	}

	var doc scoreDocument
	if err = res.Decode(&doc); err != nil {
		return entity.Score{}, fmt.Errorf("%w: %w", ErrScoreCorrupted, err)
	}

	return checkScore(doc.score())
}

// Increment - pipeline update, so a corrupted document is reset in the same atomic step.
// Missing counters compare below zero, which covers the upsert of a new document.
func (that *mongoScore) Increment(ctx context.Context, profileID string, result entity.Result) (entity.Score, error) {
	delta := entity.Score{}.Record(result)

	corrupted := bson.M{"$or": bson.A{
		bson.M{"$lt": bson.A{"$x", 0}},
		bson.M{"$lt": bson.A{"$o", 0}},
		bson.M{"$lt": bson.A{"$draws", 0}},
	}}

	counter := func(field string, inc int) bson.M {
		return bson.M{"$cond": bson.A{corrupted, inc, bson.M{"$add": bson.A{"$" + field, inc}}}}
	}

	update := bson.A{bson.M{"$set": bson.M{
		"x":     counter("x", delta.X),
		"o":     counter("o", delta.O),
		"draws": counter("draws", delta.Draws),
	}}}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc scoreDocument
	if err := that.collection.FindOneAndUpdate(ctx, bson.M{"_id": profileID}, update, opts).Decode(&doc); err != nil {
		return entity.Score{}, fmt.Errorf("failed to increment score: %w", err)
	}

	return doc.score(), nil
}

func (that scoreDocument) score() entity.Score {
	return entity.Score{X: that.X, O: that.O, Draws: that.Draws}
}
