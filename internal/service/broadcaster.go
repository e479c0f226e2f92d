package service

// Dashboard event types pushed over WebSocket.
const (
	EventLeaderboardUpdate = "leaderboard_update"
	EventTeamFinished      = "team_finished"
	EventTeamPaused        = "team_paused"
	EventTeamUnpaused      = "team_unpaused"
)

// Broadcaster pushes events to connected admin dashboards (interface avoids
// an import cycle with the transport layer).
type Broadcaster interface {
	BroadcastToDashboards(event string, payload interface{})
}
