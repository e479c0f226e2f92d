package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qrhunt/internal/model"
)

// ErrConflict is returned when a progression update loses the race against a
// concurrent update of the same team document. The caller's read is stale;
// nothing was written.
var ErrConflict = errors.New("team progress changed concurrently")

// CheckpointStamp records the write-once timestamp for one checkpoint gate.
type CheckpointStamp struct {
	Index int
	At    time.Time
}

// ProgressChange describes the fields a single transition writes. Nil
// pointers leave a field untouched; the Clear flags write an explicit null.
type ProgressChange struct {
	CurrentQuestion      *int
	AwaitQrScan          *int
	ClearAwaitQrScan     bool
	AwaitCheckpoint      *int
	ClearAwaitCheckpoint bool
	SetPaused            *bool
	CheckpointTime       *CheckpointStamp
	LastCorrectAnswerAt  *time.Time
	FinishAt             *time.Time
	ClearFinish          bool
	ClearCheckpointTimes bool
	ClearLastCorrect     bool
}

type TeamRepo interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id string) (*model.Team, error)
	GetByName(ctx context.Context, teamName string) (*model.Team, error)
	GetAll(ctx context.Context) ([]*model.Team, error)
	ListPaused(ctx context.Context) ([]*model.Team, error)

	// UpdateProgress applies change conditioned on the gate state the caller
	// read in prev. If the stored document no longer matches, nothing is
	// written and ErrConflict is returned.
	UpdateProgress(ctx context.Context, prev *model.Team, change ProgressChange) (*model.Team, error)

	// SetPaused flips the pause flag unconditionally (admin operation).
	SetPaused(ctx context.Context, id string, paused bool) (*model.Team, error)
}

type teamRepo struct {
	collection *mongo.Collection
}

func NewTeamRepo(db *mongo.Database) TeamRepo {
	return &teamRepo{collection: db.Collection("teams")}
}

func (r *teamRepo) Create(ctx context.Context, team *model.Team) error {
	team.TeamName = strings.ToLower(team.TeamName)
	_, err := r.collection.InsertOne(ctx, team)
	return err
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Team not found
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) GetByName(ctx context.Context, teamName string) (*model.Team, error) {
	var team model.Team
	err := r.collection.FindOne(ctx, bson.M{"teamName": strings.ToLower(teamName)}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) GetAll(ctx context.Context) ([]*model.Team, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var teams []*model.Team
	if err = cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepo) ListPaused(ctx context.Context) ([]*model.Team, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isPaused": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var teams []*model.Team
	if err = cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepo) UpdateProgress(ctx context.Context, prev *model.Team, change ProgressChange) (*model.Team, error) {
	// The filter pins every gate field to the state the caller read, so two
	// concurrent transitions for the same team cannot both match.
	filter := bson.M{
		"_id":                       prev.ID,
		"currentQuestion":           prev.CurrentQuestion,
		"awaitingQrScanForQuestion": prev.AwaitingQrScanForQuestion,
		"awaitingCheckpoint":        prev.AwaitingCheckpoint,
		"isPaused":                  prev.IsPaused,
		"finishTime":                prev.FinishTime,
	}

	set := bson.M{}
	if change.CurrentQuestion != nil {
		set["currentQuestion"] = *change.CurrentQuestion
	}
	if change.AwaitQrScan != nil {
		set["awaitingQrScanForQuestion"] = *change.AwaitQrScan
	} else if change.ClearAwaitQrScan {
		set["awaitingQrScanForQuestion"] = nil
	}
	if change.AwaitCheckpoint != nil {
		set["awaitingCheckpoint"] = *change.AwaitCheckpoint
	} else if change.ClearAwaitCheckpoint {
		set["awaitingCheckpoint"] = nil
	}
	if change.SetPaused != nil {
		set["isPaused"] = *change.SetPaused
	}
	if change.CheckpointTime != nil {
		set[fmt.Sprintf("checkpoint%dTime", change.CheckpointTime.Index)] = change.CheckpointTime.At
	}
	if change.LastCorrectAnswerAt != nil {
		set["lastCorrectAnswerTimestamp"] = *change.LastCorrectAnswerAt
	} else if change.ClearLastCorrect {
		set["lastCorrectAnswerTimestamp"] = nil
	}
	if change.FinishAt != nil {
		set["finishTime"] = *change.FinishAt
	} else if change.ClearFinish {
		set["finishTime"] = nil
	}
	if change.ClearCheckpointTimes {
		set["checkpoint1Time"] = nil
		set["checkpoint2Time"] = nil
		set["checkpoint3Time"] = nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated model.Team
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &updated, nil
}

func (r *teamRepo) SetPaused(ctx context.Context, id string, paused bool) (*model.Team, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated model.Team
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isPaused": paused}}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}
