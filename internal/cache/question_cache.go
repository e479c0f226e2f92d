package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qrhunt/internal/model"
)

// Question documents change rarely; a short TTL keeps admin edits visible
// without hitting Mongo on every answer check.
const questionTTL = 60 * time.Second

// QuestionCache is a read-through cache for question documents. A miss
// returns (nil, nil).
type QuestionCache interface {
	Get(ctx context.Context, questionNumber int) (*model.Question, error)
	Set(ctx context.Context, question *model.Question) error
	Invalidate(ctx context.Context, questionNumber int) error
}

type questionCache struct {
	client *redis.Client
}

func NewQuestionCache(client *redis.Client) QuestionCache {
	return &questionCache{client: client}
}

func (c *questionCache) key(questionNumber int) string {
	return fmt.Sprintf("question:%d", questionNumber)
}

func (c *questionCache) Get(ctx context.Context, questionNumber int) (*model.Question, error) {
	data, err := c.client.Get(ctx, c.key(questionNumber)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var question model.Question
	if err := json.Unmarshal(data, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (c *questionCache) Set(ctx context.Context, question *model.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(question.QuestionNumber), data, questionTTL).Err()
}

func (c *questionCache) Invalidate(ctx context.Context, questionNumber int) error {
	return c.client.Del(ctx, c.key(questionNumber)).Err()
}
