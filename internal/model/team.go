package model

import "time"

// Role is the closed set of team roles. Authorization decisions switch on
// this type rather than raw strings.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// ParseRole maps a stored string onto the closed role set. Anything that is
// not exactly "admin" is a participant.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleParticipant
}

// TeamMember is one registered member of a team (max 4 per team).
type TeamMember struct {
	Name    string `bson:"name" json:"name"`
	Contact string `bson:"contact" json:"contact"`
}

// Team is the per-team progression document. At most one of
// AwaitingQrScanForQuestion / AwaitingCheckpoint is set at a time, and
// FinishTime is write-once.
type Team struct {
	ID                         string       `bson:"_id" json:"id"`
	TeamName                   string       `bson:"teamName" json:"teamName"`
	Password                   string       `bson:"password" json:"-"`
	Role                       Role         `bson:"role" json:"role"`
	Members                    []TeamMember `bson:"members" json:"members"`
	CurrentQuestion            int          `bson:"currentQuestion" json:"currentQuestion"`
	AwaitingQrScanForQuestion  *int         `bson:"awaitingQrScanForQuestion" json:"awaitingQrScanForQuestion"`
	AwaitingCheckpoint         *int         `bson:"awaitingCheckpoint" json:"awaitingCheckpoint"`
	IsPaused                   bool         `bson:"isPaused" json:"isPaused"`
	Checkpoint1Time            *time.Time   `bson:"checkpoint1Time" json:"checkpoint1Time"`
	Checkpoint2Time            *time.Time   `bson:"checkpoint2Time" json:"checkpoint2Time"`
	Checkpoint3Time            *time.Time   `bson:"checkpoint3Time" json:"checkpoint3Time"`
	LastCorrectAnswerTimestamp *time.Time   `bson:"lastCorrectAnswerTimestamp" json:"lastCorrectAnswerTimestamp"`
	FinishTime                 *time.Time   `bson:"finishTime" json:"finishTime"`
	CreatedAt                  time.Time    `bson:"createdAt" json:"createdAt"`
}

// Finished reports whether the team has completed the hunt.
func (t *Team) Finished() bool {
	return t.FinishTime != nil
}
