package types

// HydrationSnapshot is everything a client needs to render the draft from scratch.
// Roster is the requesting participant's roster and is empty for spectators.
type HydrationSnapshot struct {
	Items                []Item         `json:"items"`
	Participants         []Participant  `json:"participants"`
	History              []HistoryEntry `json:"history"`
	Roster               []RosterEntry  `json:"roster"`
	CurrentParticipantID string         `json:"current_participant_id,omitempty"`
	UpcomingTurns        []TurnSlot     `json:"upcoming_turns"`
	Cursor               int            `json:"cursor"`
	TotalTurns           int            `json:"total_turns"`
	Paused               bool           `json:"paused"`
	Completed            bool           `json:"completed"`
}

type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

type HistoryEntry struct {
	ItemID        int    `json:"item_id"`
	ParticipantID string `json:"participant_id"`
	Round         int    `json:"round"`
	PickNumber    int    `json:"pick_number"`
}
