package types

import "time"

// User is the signed-in identity as reported by the backend.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	SubscriptionTier string `json:"subscription_tier"`
}

// Subscription tiers known to the UI.
const (
	TierBasic = "basic"
	TierPro   = "pro"
)

// Agent is a named system-prompt configuration usable in a sandbox session.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"system_prompt"`
	IsPublic     bool      `json:"is_public"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Prompt is a reusable text template with tags.
type Prompt struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	IsPublic    bool      `json:"is_public"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SandboxSession is a collaborative workspace containing placed agents and a
// chat transcript.
type SandboxSession struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Configuration map[string]any `json:"configuration"`
	UserID        string         `json:"user_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SandboxAgent is an agent placed on a session canvas.
type SandboxAgent struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	AgentID       string         `json:"agent_id"`
	PositionX     float64        `json:"position_x"`
	PositionY     float64        `json:"position_y"`
	Configuration map[string]any `json:"configuration"`
}

// Position is a canvas coordinate pair.
type Position struct {
	X float64 `json:"position_x"`
	Y float64 `json:"position_y"`
}

// Message sender kinds.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// ChatMessage is one entry of a session transcript. Messages are append-only;
// they are never edited or deleted on this side.
type ChatMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	SenderID   string    `json:"sender_id"`
	SenderType string    `json:"sender_type"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conflict statuses. Conflicts are created server side and transition
// pending -> resolved/rejected.
const (
	ConflictPending  = "pending"
	ConflictResolved = "resolved"
	ConflictRejected = "rejected"
)

// ConflictResolution records a disagreement between two agents in a session.
// The resolution mechanism lives in the backend.
type ConflictResolution struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Agent1ID          string    `json:"agent1_id"`
	Agent2ID          string    `json:"agent2_id"`
	ConflictContent   string    `json:"conflict_content"`
	ResolutionContent *string   `json:"resolution_content"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Marketplace item kinds.
const (
	ItemAgent  = "agent"
	ItemPrompt = "prompt"
)

// MarketplaceListing wraps an Agent or Prompt for sale.
type MarketplaceListing struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	ItemType    string         `json:"item_type"`
	ItemID      string         `json:"item_id"`
	UserID      string         `json:"user_id"`
	Tags        []string       `json:"tags"`
	PreviewData map[string]any `json:"preview_data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Transaction is created on purchase and immutable thereafter.
type Transaction struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	Amount     float64   `json:"amount"`
	Commission float64   `json:"commission"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubscriptionStatus mirrors /subscriptions/status.
type SubscriptionStatus struct {
	Tier              string     `json:"tier"`
	Active            bool       `json:"active"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end,omitempty"`
}
