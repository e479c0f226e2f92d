package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"qrhunt/internal/model"
	"qrhunt/internal/qrtoken"
	"qrhunt/internal/service"
	"qrhunt/internal/testutil"
	"qrhunt/internal/transport/ws"
)

type apiFixture struct {
	server *httptest.Server
	codec  *qrtoken.Codec
	teams  *testutil.MemTeamRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	teams := testutil.NewMemTeamRepo()
	questions := testutil.NewMemQuestionRepo()
	qcache := testutil.NewMemQuestionCache()
	lbcache := testutil.NewMemLeaderboardCache()
	codec := qrtoken.New("api-test-secret")
	plan := model.DefaultCheckpointPlan()
	hub := ws.NewHub()

	for n := 1; n <= 13; n++ {
		if _, err := questions.Upsert(context.Background(), &model.Question{
			QuestionNumber: n,
			Text:           fmt.Sprintf("question %d", n),
			Answer:         fmt.Sprintf("answer-%d", n),
			Hint:           fmt.Sprintf("hint-%d", n),
		}); err != nil {
			t.Fatalf("seed question %d: %v", n, err)
		}
	}

	authSvc := service.NewAuthService(teams, "api-test-jwt", "letmein")
	gameSvc := service.NewGameService(teams, questions, qcache, lbcache, codec, plan)
	gameSvc.SetBroadcaster(hub)
	checkpointSvc := service.NewCheckpointService(teams, plan, lbcache)
	checkpointSvc.SetBroadcaster(hub)
	leaderboardSvc := service.NewLeaderboardService(teams, lbcache)
	adminSvc := service.NewAdminService(teams, questions, qcache, codec)

	router := NewRouter(&Container{
		AuthService:        authSvc,
		GameService:        gameSvc,
		CheckpointService:  checkpointSvc,
		LeaderboardService: leaderboardSvc,
		AdminService:       adminSvc,
		WSHub:              hub,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, codec: codec, teams: teams}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	fields := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func (f *apiFixture) register(t *testing.T, name, role, inviteKey string) (token, teamID string) {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		TeamName:       name,
		Password:       "hunter22",
		Role:           role,
		AdminInviteKey: inviteKey,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", name, resp.StatusCode)
	}
	if err := json.Unmarshal(body["token"], &token); err != nil {
		t.Fatalf("register %s: no token: %v", name, err)
	}
	var info model.TeamInfo
	if err := json.Unmarshal(body["team"], &info); err != nil {
		t.Fatalf("register %s: no team info: %v", name, err)
	}
	return token, info.ID
}

// advance answers the team's current question and redeems the matching
// placard, one full step.
func (f *apiFixture) advance(t *testing.T, token string, n int) {
	t.Helper()
	resp, _ := f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{
		"submittedAnswer": "answer-" + strconv.Itoa(n),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit answer %d: status %d", n, resp.StatusCode)
	}
	qr := f.codec.Generate(n, time.Now(), qrtoken.DefaultTTLSeconds)
	resp, _ = f.do(t, http.MethodPost, "/api/qr/resolve/"+qr, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve placard %d: status %d", n, resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/game/progress", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, "/api/game/progress", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: status %d, want 401", resp.StatusCode)
	}

	token, _ := f.register(t, "players", "", "")
	resp, _ = f.do(t, http.MethodGet, "/api/admin/teams", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("participant on admin route: status %d, want 403", resp.StatusCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		TeamName: "shorty", Password: "abc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short password: status %d, want 400", resp.StatusCode)
	}

	f.register(t, "dupes", "", "")
	resp, _ = f.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		TeamName: "dupes", Password: "hunter22",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate name: status %d, want 409", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		TeamName: "wannabe", Password: "hunter22", Role: "admin", AdminInviteKey: "wrong",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("bad invite key: status %d, want 403", resp.StatusCode)
	}
}

func TestGameplayFlow(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.register(t, "flowers", "", "")

	// The current question is served without its answer.
	resp, body := f.do(t, http.MethodPost, "/api/game/question/1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get question: status %d", resp.StatusCode)
	}
	if _, leaked := body["answer"]; leaked {
		t.Error("question response leaked the answer")
	}

	// Another question is out of turn.
	resp, _ = f.do(t, http.MethodPost, "/api/game/question/2", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("future question: status %d, want 403", resp.StatusCode)
	}

	// Wrong answer.
	resp, _ = f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "nope"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong answer: status %d, want 400", resp.StatusCode)
	}

	// Right answer arms the QR gate; answering again is rejected until the
	// placard is scanned.
	resp, body = f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "answer-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("correct answer: status %d", resp.StatusCode)
	}
	var requiresScan bool
	_ = json.Unmarshal(body["requiresQrScan"], &requiresScan)
	if !requiresScan {
		t.Error("correct answer did not request a QR scan")
	}
	resp, _ = f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "answer-1"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("submit while gated: status %d, want 403", resp.StatusCode)
	}

	// Expired placard is rejected with a reason; a fresh one advances.
	stale := f.codec.Generate(1, time.Now().Add(-time.Hour), qrtoken.DefaultTTLSeconds)
	resp, body = f.do(t, http.MethodPost, "/api/qr/resolve/"+stale, token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("stale placard: status %d, want 400", resp.StatusCode)
	}
	var reason string
	_ = json.Unmarshal(body["reason"], &reason)
	if reason != qrtoken.ReasonExpired {
		t.Errorf("reason = %q, want %q", reason, qrtoken.ReasonExpired)
	}

	fresh := f.codec.Generate(1, time.Now(), qrtoken.DefaultTTLSeconds)
	resp, body = f.do(t, http.MethodPost, "/api/qr/resolve/"+fresh, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fresh placard: status %d", resp.StatusCode)
	}
	var current int
	_ = json.Unmarshal(body["currentQuestion"], &current)
	if current != 2 {
		t.Errorf("currentQuestion = %d, want 2", current)
	}
}

func TestCheckpointFlow(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.register(t, "walkers", "", "")
	adminToken, _ := f.register(t, "staff", "admin", "letmein")

	for n := 1; n <= 3; n++ {
		f.advance(t, token, n)
	}

	// Question 4 arms checkpoint 1 instead of a QR gate.
	resp, body := f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "answer-4"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit answer 4: status %d", resp.StatusCode)
	}
	var needsCheckpoint bool
	_ = json.Unmarshal(body["requiresCheckpoint"], &needsCheckpoint)
	if !needsCheckpoint {
		t.Fatal("answer 4 did not request a checkpoint")
	}

	// Scanning the wrong placard reports the expected one.
	resp, body = f.do(t, http.MethodPost, "/api/checkpoint/scan/2", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong checkpoint: status %d, want 400", resp.StatusCode)
	}
	var expected int
	_ = json.Unmarshal(body["awaitingCheckpoint"], &expected)
	if expected != 1 {
		t.Errorf("awaitingCheckpoint = %d, want 1", expected)
	}

	// The right placard clears the gate and pauses the team at question 5.
	resp, body = f.do(t, http.MethodPost, "/api/checkpoint/scan/1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan checkpoint 1: status %d", resp.StatusCode)
	}
	var next int
	_ = json.Unmarshal(body["nextQuestion"], &next)
	if next != 5 {
		t.Errorf("nextQuestion = %d, want 5", next)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "answer-5"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("submit while paused: status %d, want 403", resp.StatusCode)
	}

	// An organizer releases every paused team.
	resp, body = f.do(t, http.MethodPost, "/api/checkpoint/unpause-all", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unpause-all: status %d", resp.StatusCode)
	}
	var count int
	_ = json.Unmarshal(body["count"], &count)
	if count != 1 {
		t.Errorf("unpaused %d teams, want 1", count)
	}
	resp, _ = f.do(t, http.MethodPost, "/api/game/submit-answer", token, map[string]string{"submittedAnswer": "answer-5"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("submit after release: status %d, want 200", resp.StatusCode)
	}
}

func TestLeaderboardPublic(t *testing.T) {
	f := newAPIFixture(t)
	token, teamID := f.register(t, "climbers", "", "")
	f.register(t, "staff", "admin", "letmein")
	f.advance(t, token, 1)

	resp, err := http.Get(f.server.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("GET /api/leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var entries []struct {
		Rank     int    `json:"rank"`
		TeamID   string `json:"id"`
		TeamName string `json:"teamName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (admins excluded)", len(entries))
	}
	if entries[0].TeamID != teamID || entries[0].Rank != 1 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestAdminQuestionManagement(t *testing.T) {
	f := newAPIFixture(t)
	adminToken, _ := f.register(t, "staff", "admin", "letmein")

	resp, _ := f.do(t, http.MethodPost, "/api/admin/questions", adminToken, model.Question{
		QuestionNumber: 14,
		Text:           "bonus question",
		Answer:         "bonus",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert: status %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/admin/questions", adminToken, model.Question{
		QuestionNumber: 15, Text: " ", Answer: "x",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank text: status %d, want 400", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodDelete, "/api/admin/questions/14", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodDelete, "/api/admin/questions/14", adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete again: status %d, want 404", resp.StatusCode)
	}
}
