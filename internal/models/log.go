package models

import "time"

// LogType colors a log entry
type LogType string

const (
	LogInfo    LogType = "INFO"
	LogDanger  LogType = "DANGER"
	LogSuccess LogType = "SUCCESS"
	LogAI      LogType = "AI"
)

// LogEntry is one narrative line of the game log
type LogEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Type      LogType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
