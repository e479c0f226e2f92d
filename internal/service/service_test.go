package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"qrhunt/internal/model"
	"qrhunt/internal/qrtoken"
	"qrhunt/internal/testutil"
)

const testSecret = "test-qr-secret"

// recordingBroadcaster captures dashboard events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) BroadcastToDashboards(event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) has(event string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e == event {
			return true
		}
	}
	return false
}

type fixture struct {
	game        *GameService
	checkpoints *CheckpointService
	leaderboard *LeaderboardService
	teams       *testutil.MemTeamRepo
	questions   *testutil.MemQuestionRepo
	codec       *qrtoken.Codec
	broadcast   *recordingBroadcaster
}

// newFixture wires the services over in-memory stores, seeded with
// questionCount questions answered by "answer-<n>".
func newFixture(t *testing.T, questionCount int) *fixture {
	t.Helper()

	teams := testutil.NewMemTeamRepo()
	questions := testutil.NewMemQuestionRepo()
	qcache := testutil.NewMemQuestionCache()
	lbcache := testutil.NewMemLeaderboardCache()
	codec := qrtoken.New(testSecret)
	plan := model.DefaultCheckpointPlan()
	broadcast := &recordingBroadcaster{}

	for n := 1; n <= questionCount; n++ {
		if _, err := questions.Upsert(context.Background(), &model.Question{
			ID:             fmt.Sprintf("q%d", n),
			QuestionNumber: n,
			Text:           fmt.Sprintf("question %d", n),
			Answer:         fmt.Sprintf("answer-%d", n),
			Hint:           fmt.Sprintf("hint-%d", n),
		}); err != nil {
			t.Fatalf("seed question %d: %v", n, err)
		}
	}

	game := NewGameService(teams, questions, qcache, lbcache, codec, plan)
	game.SetBroadcaster(broadcast)
	checkpoints := NewCheckpointService(teams, plan, lbcache)
	checkpoints.SetBroadcaster(broadcast)
	leaderboard := NewLeaderboardService(teams, lbcache)

	return &fixture{
		game:        game,
		checkpoints: checkpoints,
		leaderboard: leaderboard,
		teams:       teams,
		questions:   questions,
		codec:       codec,
		broadcast:   broadcast,
	}
}

type teamOpt func(*model.Team)

func atQuestion(n int) teamOpt {
	return func(t *model.Team) { t.CurrentQuestion = n }
}

func awaitingScan(n int) teamOpt {
	return func(t *model.Team) { t.AwaitingQrScanForQuestion = &n }
}

func awaitingCheckpoint(k int) teamOpt {
	return func(t *model.Team) { t.AwaitingCheckpoint = &k }
}

func paused() teamOpt {
	return func(t *model.Team) { t.IsPaused = true }
}

func finishedAt(at time.Time) teamOpt {
	return func(t *model.Team) { t.FinishTime = &at }
}

func lastCorrectAt(at time.Time) teamOpt {
	return func(t *model.Team) { t.LastCorrectAnswerTimestamp = &at }
}

func asAdmin() teamOpt {
	return func(t *model.Team) { t.Role = model.RoleAdmin }
}

func (f *fixture) seedTeam(t *testing.T, id string, opts ...teamOpt) *model.Team {
	t.Helper()
	team := &model.Team{
		ID:              id,
		TeamName:        id,
		Role:            model.RoleParticipant,
		CurrentQuestion: 1,
		CreatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(team)
	}
	if err := f.teams.Create(context.Background(), team); err != nil {
		t.Fatalf("seed team %s: %v", id, err)
	}
	return team
}

func (f *fixture) team(t *testing.T, id string) *model.Team {
	t.Helper()
	team, err := f.teams.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load team %s: %v", id, err)
	}
	if team == nil {
		t.Fatalf("team %s not found", id)
	}
	return team
}
