package entity

// DrawKey is the bookkeeping key for draws under the shared draw policy.
const DrawKey = "Draw"

// PlayerStat holds cumulative counters for one key.
type PlayerStat struct {
	PlayerName string `json:"player_name"`
	Wins       int64  `json:"wins"`
	Losses     int64  `json:"losses"`
	Draws      int64  `json:"draws"`
	TotalGames int64  `json:"total_games"`
}

// StatDelta is an increment applied to one PlayerStat row.
type StatDelta struct {
	PlayerName string
	Wins       int64
	Losses     int64
	Draws      int64
	TotalGames int64
}

// Apply - adds the delta to the stat counters.
func (that *PlayerStat) Apply(delta StatDelta) {
	that.Wins += delta.Wins
	that.Losses += delta.Losses
	that.Draws += delta.Draws
	that.TotalGames += delta.TotalGames
}
