package models

import "time"

type MessageType string

const (
	MessageInfo    MessageType = "I"
	MessageSuccess MessageType = "S"
	MessageWarning MessageType = "W"
	MessageError   MessageType = "E"
)

type Message struct {
	Type   MessageType
	Source string
	Time   time.Time
	Text   string
}

// CycleReport итог одного цикла по инструменту.
type CycleReport struct {
	MarketID     string
	Signal       Signal
	Messages     []Message
	MarketClosed bool
}

func (r CycleReport) ErrorsExist() bool {
	for _, m := range r.Messages {
		if m.Type == MessageError {
			return true
		}
	}
	return false
}

// Notable true если есть что-то кроме Info.
func (r CycleReport) Notable() bool {
	for _, m := range r.Messages {
		if m.Type != MessageInfo {
			return true
		}
	}
	return false
}
