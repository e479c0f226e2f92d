package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qrhunt/internal/model"
)

type QuestionRepo interface {
	Upsert(ctx context.Context, question *model.Question) (*model.Question, error)
	GetByNumber(ctx context.Context, questionNumber int) (*model.Question, error)
	DeleteByNumber(ctx context.Context, questionNumber int) (bool, error)
	List(ctx context.Context) ([]*model.Question, error)
	Count(ctx context.Context) (int, error)
}

type questionRepo struct {
	collection *mongo.Collection
}

func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{collection: db.Collection("questions")}
}

func (r *questionRepo) Upsert(ctx context.Context, question *model.Question) (*model.Question, error) {
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}

	// Keyed by question number: updating an existing number replaces it,
	// so duplicate numbers cannot exist.
	filter := bson.M{"questionNumber": question.QuestionNumber}
	update := bson.M{
		"$set": bson.M{
			"questionNumber": question.QuestionNumber,
			"text":           question.Text,
			"answer":         question.Answer,
			"hint":           question.Hint,
			"imageUrl":       question.ImageURL,
			"links":          question.Links,
		},
		"$setOnInsert": bson.M{"_id": question.ID},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved model.Question
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *questionRepo) GetByNumber(ctx context.Context, questionNumber int) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"questionNumber": questionNumber}).Decode(&question)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Question not found
		}
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) DeleteByNumber(ctx context.Context, questionNumber int) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"questionNumber": questionNumber})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *questionRepo) List(ctx context.Context) ([]*model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "questionNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) Count(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
