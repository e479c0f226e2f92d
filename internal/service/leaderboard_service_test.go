package service

import (
	"context"
	"testing"
	"time"

	"qrhunt/internal/model"
)

func TestRankOrdering(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ts := func(min int) *time.Time {
		v := base.Add(time.Duration(min) * time.Minute)
		return &v
	}

	teams := []*model.Team{
		{ID: "slow-finisher", TeamName: "slow-finisher", CurrentQuestion: 13, FinishTime: ts(90)},
		{ID: "no-answers", TeamName: "no-answers", CurrentQuestion: 1},
		{ID: "fast-finisher", TeamName: "fast-finisher", CurrentQuestion: 13, FinishTime: ts(60)},
		{ID: "behind", TeamName: "behind", CurrentQuestion: 3, LastCorrectAnswerTimestamp: ts(10)},
		{ID: "ahead-late", TeamName: "ahead-late", CurrentQuestion: 7, LastCorrectAnswerTimestamp: ts(40)},
		{ID: "ahead-early", TeamName: "ahead-early", CurrentQuestion: 7, LastCorrectAnswerTimestamp: ts(30)},
		{ID: "staff", TeamName: "staff", Role: model.RoleAdmin, CurrentQuestion: 13, FinishTime: ts(1)},
	}

	ranked := Rank(teams)

	want := []string{"fast-finisher", "slow-finisher", "ahead-early", "ahead-late", "behind", "no-answers"}
	if len(ranked) != len(want) {
		t.Fatalf("got %d teams, want %d (admins must be excluded)", len(ranked), len(want))
	}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("rank %d = %s, want %s", i+1, ranked[i].ID, id)
		}
	}
}

func TestRankUnfinishedBeatsNothing(t *testing.T) {
	// A finished team outranks every unfinished team regardless of question.
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	teams := []*model.Team{
		{ID: "far-along", TeamName: "far-along", CurrentQuestion: 12},
		{ID: "done", TeamName: "done", CurrentQuestion: 13, FinishTime: &at},
	}
	ranked := Rank(teams)
	if ranked[0].ID != "done" {
		t.Errorf("rank 1 = %s, want done", ranked[0].ID)
	}
}

func TestRankNilLastAnswerSortsLast(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	teams := []*model.Team{
		{ID: "untouched", TeamName: "untouched", CurrentQuestion: 5},
		{ID: "answered", TeamName: "answered", CurrentQuestion: 5, LastCorrectAnswerTimestamp: &at},
	}
	ranked := Rank(teams)
	if ranked[0].ID != "answered" || ranked[1].ID != "untouched" {
		t.Errorf("order = [%s, %s], want [answered, untouched]", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankIsStableAndDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	teams := []*model.Team{
		{ID: "first-in", TeamName: "first-in", CurrentQuestion: 5, LastCorrectAnswerTimestamp: &at},
		{ID: "second-in", TeamName: "second-in", CurrentQuestion: 5, LastCorrectAnswerTimestamp: &at},
		{ID: "tied-finish-a", TeamName: "tied-finish-a", CurrentQuestion: 13, FinishTime: &at},
		{ID: "tied-finish-b", TeamName: "tied-finish-b", CurrentQuestion: 13, FinishTime: &at},
	}

	first := Rank(teams)
	for i := 0; i < 10; i++ {
		again := Rank(teams)
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatalf("re-rank %d changed order at position %d: %s != %s", i, j, again[j].ID, first[j].ID)
			}
		}
	}
	// Equal keys keep input order.
	if first[0].ID != "tied-finish-a" || first[1].ID != "tied-finish-b" {
		t.Errorf("tied finishers reordered: [%s, %s]", first[0].ID, first[1].ID)
	}
	if first[2].ID != "first-in" || first[3].ID != "second-in" {
		t.Errorf("tied answerers reordered: [%s, %s]", first[2].ID, first[3].ID)
	}
}

func TestLeaderboardGetRanksAndCaches(t *testing.T) {
	f := newFixture(t, 13)
	now := time.Now()
	f.seedTeam(t, "leader", atQuestion(5), lastCorrectAt(now))
	f.seedTeam(t, "trailer", atQuestion(5))
	f.seedTeam(t, "staff", asAdmin())

	entries, err := f.leaderboard.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].TeamID != "leader" || entries[0].Rank != 1 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].TeamID != "trailer" || entries[1].Rank != 2 {
		t.Errorf("entry 1 = %+v", entries[1])
	}

	// Advancing past the leader invalidates the snapshot; the next read
	// re-ranks rather than serving the stale order.
	if _, err := f.game.SubmitAnswer(context.Background(), "trailer", "answer-5"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	token := f.codec.Generate(5, time.Now(), 60)
	if _, err := f.game.RedeemToken(context.Background(), "trailer", token); err != nil {
		t.Fatalf("RedeemToken: %v", err)
	}

	entries, err = f.leaderboard.Get(context.Background())
	if err != nil {
		t.Fatalf("Get after progress: %v", err)
	}
	if entries[0].TeamID != "trailer" {
		t.Errorf("leader after progress = %s, want trailer", entries[0].TeamID)
	}
}
