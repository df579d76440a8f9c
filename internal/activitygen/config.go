// Package activitygen drives a running growth engine with synthetic member
// activity and verifies the derived state it reports.
package activitygen

import "time"

// Config holds configuration for an activity run.
type Config struct {
	BaseURL string        // Base URL of the service
	Members int           // Number of synthetic members
	Days    int           // How many days of history to simulate
	Workers int           // Number of concurrent submit workers
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for run output
	Verbose bool          // Enable verbose logging
}

// Event is the wire shape submitted to POST /track.
type Event struct {
	EventID    string            `json:"event_id"`
	MemberID   string            `json:"member_id"`
	Type       string            `json:"type"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt string            `json:"occurred_at"`
}

// MemberState is the wire shape pushed to PUT /members/{id}/state.
type MemberState struct {
	BusinessName      string     `json:"business_name"`
	Bio               string     `json:"bio"`
	Category          string     `json:"category"`
	Products          []Product  `json:"products,omitempty"`
	PitchDeck         *PitchDeck `json:"pitch_deck,omitempty"`
	FollowerCount     int        `json:"follower_count"`
	FollowerCountPrev int        `json:"follower_count_prev"`
	ReceivedLikes     int        `json:"received_likes"`
	ReceivedComments  int        `json:"received_comments"`
}

// Product is a synthetic catalog item.
type Product struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
	Sold  bool     `json:"sold"`
}

// PitchDeck is a synthetic pitch deck.
type PitchDeck struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Market   string `json:"market"`
	Ask      string `json:"ask"`
}

// AckResponse is the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// Score is the funding score read back for verification.
type Score struct {
	MemberID   string         `json:"member_id"`
	Total      int            `json:"total"`
	Components map[string]int `json:"components"`
	Status     string         `json:"status"`
	ComputedAt string         `json:"computed_at"`
}

// Task is a growth task read back for verification.
type Task struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	Category string `json:"category"`
	TitleKey string `json:"title_key"`
	Priority string `json:"priority"`
}

// Suggestion is a next-step suggestion read back for verification.
type Suggestion struct {
	MemberID string `json:"member_id"`
	Kind     string `json:"kind"`
	Priority string `json:"priority"`
}

// Streak is a streak row read back for verification.
type Streak struct {
	MemberID      string `json:"member_id"`
	Type          string `json:"type"`
	CurrentLength int    `json:"current_length"`
}

// Stats holds run statistics.
type Stats struct {
	MembersSeeded    int
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	MembersVerified  int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
