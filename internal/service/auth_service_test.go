package service

import (
	"context"
	"errors"
	"testing"

	"qrhunt/internal/model"
	"qrhunt/internal/testutil"
)

func newAuthService() (*AuthService, *testutil.MemTeamRepo) {
	teams := testutil.NewMemTeamRepo()
	return NewAuthService(teams, "test-jwt-secret", "letmein"), teams
}

func TestRegisterParticipant(t *testing.T) {
	auth, teams := newAuthService()

	res, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "Night Owls",
		Password: "hunter22",
		Members:  []model.TeamMember{{Name: "ada"}, {Name: "grace"}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Token == "" {
		t.Error("no session token issued")
	}
	if res.Team.Role != model.RoleParticipant {
		t.Errorf("role = %q, want participant", res.Team.Role)
	}

	team, err := teams.GetByID(context.Background(), res.Team.ID)
	if err != nil || team == nil {
		t.Fatalf("created team not found: %v", err)
	}
	if team.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want 1", team.CurrentQuestion)
	}
	if team.Password == "hunter22" {
		t.Error("password stored in plaintext")
	}
	if len(team.Members) != 2 {
		t.Errorf("got %d members, want 2", len(team.Members))
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	auth, _ := newAuthService()

	req := model.RegisterRequest{TeamName: "owls", Password: "hunter22"}
	if _, err := auth.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	// Name matching is case-insensitive.
	req.TeamName = "OWLS"
	if _, err := auth.Register(context.Background(), req); !errors.Is(err, ErrTeamNameTaken) {
		t.Errorf("err = %v, want ErrTeamNameTaken", err)
	}
}

func TestRegisterAdminRequiresInviteKey(t *testing.T) {
	auth, _ := newAuthService()

	if _, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "staff", Password: "hunter22", Role: "admin", AdminInviteKey: "wrong",
	}); !errors.Is(err, ErrInvalidInviteKey) {
		t.Fatalf("wrong key: err = %v, want ErrInvalidInviteKey", err)
	}

	res, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "staff", Password: "hunter22", Role: "admin", AdminInviteKey: "letmein",
	})
	if err != nil {
		t.Fatalf("right key: %v", err)
	}
	if res.Team.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", res.Team.Role)
	}
}

func TestRegisterCapsMembers(t *testing.T) {
	auth, teams := newAuthService()

	members := make([]model.TeamMember, 6)
	for i := range members {
		members[i] = model.TeamMember{Name: "m" + string(rune('a'+i))}
	}
	res, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "crowd", Password: "hunter22", Members: members,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	team, _ := teams.GetByID(context.Background(), res.Team.ID)
	if len(team.Members) != 4 {
		t.Errorf("got %d members, want 4", len(team.Members))
	}
}

func TestLogin(t *testing.T) {
	auth, _ := newAuthService()
	if _, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "owls", Password: "hunter22",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := auth.Login(context.Background(), "OWLS", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Error("no session token issued")
	}

	if _, err := auth.Login(context.Background(), "owls", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(context.Background(), "nobody", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown team: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateToken(t *testing.T) {
	auth, _ := newAuthService()
	res, err := auth.Register(context.Background(), model.RegisterRequest{
		TeamName: "owls", Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := auth.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TeamID != res.Team.ID || claims.Role != model.RoleParticipant {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := auth.ValidateToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}

	// A token signed with a different secret must not validate.
	other := NewAuthService(testutil.NewMemTeamRepo(), "other-secret", "")
	otherRes, err := other.Register(context.Background(), model.RegisterRequest{
		TeamName: "owls", Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register on other: %v", err)
	}
	if _, err := auth.ValidateToken(otherRes.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token: err = %v, want ErrInvalidToken", err)
	}
}
