package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qrhunt/internal/model"
	"qrhunt/internal/repository"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = "qrhunt"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	questions := repository.NewQuestionRepo(client.Database(database))

	seed := []*model.Question{
		{QuestionNumber: 1, Text: "What year is carved above the main library entrance?", Answer: "1923", Hint: "Look up before you walk in."},
		{QuestionNumber: 2, Text: "How many columns hold up the clocktower arcade?", Answer: "8|eight", Hint: "The clocktower is older than it looks."},
		{QuestionNumber: 3, Text: "What animal tops the fountain in the central quad?", Answer: "dolphin", Hint: "It spits water all day."},
		{QuestionNumber: 4, Text: "What color is the door of the oldest building on campus?", Answer: "red|dark red", Hint: "The founders' hall keeps its original paint."},
		{QuestionNumber: 5, Text: "Whose statue faces the engineering building?", Answer: "tesla|nikola tesla", Hint: "He argued with Edison."},
		{QuestionNumber: 6, Text: "How many steps lead up to the observatory?", Answer: "52|fifty-two|fifty two", Hint: "Count them on your way up."},
		{QuestionNumber: 7, Text: "What word is engraved on the bell in the north tower?", Answer: "veritas", Hint: "It's Latin."},
		{QuestionNumber: 8, Text: "What is painted on the ceiling of the music hall foyer?", Answer: "stars|a star map|star map", Hint: "Look up, again."},
		{QuestionNumber: 9, Text: "Which tree species lines the memorial walk?", Answer: "oak|oaks", Hint: "Acorns everywhere in autumn."},
		{QuestionNumber: 10, Text: "How many flags fly in front of the student union?", Answer: "12|twelve", Hint: "One per founding county."},
		{QuestionNumber: 11, Text: "What does the plaque by the sundial commemorate?", Answer: "the class of 1950|class of 1950", Hint: "A graduating class left it behind."},
		{QuestionNumber: 12, Text: "What instrument does the gargoyle on the chapel play?", Answer: "trumpet", Hint: "Medieval stonemasons had humor."},
		{QuestionNumber: 13, Text: "What is written on the keystone of the west gate?", Answer: "finis coronat opus", Hint: "The end crowns the work."},
	}

	for _, q := range seed {
		if _, err := questions.Upsert(ctx, q); err != nil {
			log.Fatalf("Failed to seed question %d: %v", q.QuestionNumber, err)
		}
		log.Printf("Seeded question %d", q.QuestionNumber)
	}

	log.Printf("Done: %d questions", len(seed))
}
