// Package types is the JSON protocol spoken over the draft websocket and
// mirrored on the Redis event channel.
package types

// Client -> Server
//
//	pick:          {item_id}
//	undoLastPick:  {}                (admin)
//	setPaused:     {paused}          (admin)
//	getRoster:     {participant_id}
//	searchItems:   {query, category}
//	hydrate:       {}
//
// Server -> Client
//
//	connectionVerified (unicast)  ConnectionVerified
//	hydrationSnapshot  (unicast)  HydrationSnapshot
//	turnAdvanced       (broadcast) TurnChange
//	undoApplied        (broadcast) TurnChange, previous_* is the undone pick
//	draftPaused        (broadcast) Paused
//	draftResumed       (broadcast) Paused
//	participantStatus  (broadcast) ParticipantStatus
//	pickRejected       (unicast)  PickRejected
//	roster             (unicast)  Roster
//	searchResults      (unicast)  SearchResults
//	reset              (unicast)  no payload; reload the client
//
// Malformed frames are answered with pickRejected BAD_REQUEST.

type MessageType string

const (
	MsgPick         MessageType = "pick"
	MsgUndoLastPick MessageType = "undoLastPick"
	MsgSetPaused    MessageType = "setPaused"
	MsgGetRoster    MessageType = "getRoster"
	MsgSearchItems  MessageType = "searchItems"
	MsgHydrate      MessageType = "hydrate"

	MsgConnectionVerified MessageType = "connectionVerified"
	MsgHydrationSnapshot  MessageType = "hydrationSnapshot"
	MsgTurnAdvanced       MessageType = "turnAdvanced"
	MsgUndoApplied        MessageType = "undoApplied"
	MsgDraftPaused        MessageType = "draftPaused"
	MsgDraftResumed       MessageType = "draftResumed"
	MsgParticipantStatus  MessageType = "participantStatus"
	MsgPickRejected       MessageType = "pickRejected"
	MsgRoster             MessageType = "roster"
	MsgSearchResults      MessageType = "searchResults"
	MsgReset              MessageType = "reset"
)

// ServerMessage is the envelope of every server frame.
type ServerMessage struct {
	Type    MessageType `json:"type"`
	Version int         `json:"version"`
	Payload any         `json:"payload,omitempty"`
}

type TurnSlot struct {
	ParticipantID string `json:"participant_id"`
	Round         int    `json:"round"`
	PickNumber    int    `json:"pick_number"`
}

type TurnChange struct {
	PreviousParticipantID string     `json:"previous_participant_id"`
	PreviousItemID        int        `json:"previous_item_id"`
	PreviousRound         int        `json:"previous_round"`
	PreviousPickNumber    int        `json:"previous_pick_number"`
	CurrentParticipantID  string     `json:"current_participant_id,omitempty"`
	UpcomingTurns         []TurnSlot `json:"upcoming_turns"`
	Completed             bool       `json:"completed"`
}

type Paused struct {
	Paused bool `json:"paused"`
}

type ParticipantStatus struct {
	ParticipantID string `json:"participant_id"`
	Online        bool   `json:"online"`
}

type PickRejected struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// Error is the body of HTTP error responses.
type Error struct {
	Error string `json:"error"`
}

type ConnectionVerified struct {
	ParticipantID string `json:"participant_id,omitempty"`
	Admin         bool   `json:"admin,omitempty"`
}

type RosterEntry struct {
	ItemID     int `json:"item_id"`
	Round      int `json:"round"`
	PickNumber int `json:"pick_number"`
}

type Roster struct {
	ParticipantID string        `json:"participant_id"`
	Entries       []RosterEntry `json:"entries"`
}

type Item struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Categories []string          `json:"categories,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Drafted    bool              `json:"drafted"`
}

type SearchResults struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Items    []Item `json:"items"`
}

// Upcoming answers GET /draft/upcoming.
type Upcoming struct {
	Cursor        int        `json:"cursor"`
	UpcomingTurns []TurnSlot `json:"upcoming_turns"`
}
