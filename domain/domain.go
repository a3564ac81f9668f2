package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// MatchRecord is one row of games_history. FinishReason is either
// "destruction" (all 17 ship segments hit) or "forfeit" (opponent left
// mid-battle).
type MatchRecord struct {
	ID             int64
	WinnerUsername string
	LoserUsername  string
	FinishReason   string
	PlayedAt       time.Time
}

type News struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
}

type Report struct {
	ID         int64
	Username   string
	Message    string
	IsResolved bool
	CreatedAt  time.Time
}
