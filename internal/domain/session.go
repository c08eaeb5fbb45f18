package domain

import "time"

// Session is the per-chat conversational state.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	Username      string    `json:"username,omitempty"`
	Flow          FlowState `json:"flow"`
	Scratch       Scratch   `json:"scratch"`
	LastActivity  time.Time `json:"last_activity"`
}

// Scratch holds the fields collected by the in-flight flow.
type Scratch struct {
	CandidateUsername string       `json:"candidate_username,omitempty"`
	EditProductID     int64        `json:"edit_product_id,omitempty"`
	EditAttributeID   int64        `json:"edit_attribute_id,omitempty"`
	Draft             ProductDraft `json:"draft"`
}

// NewSession returns the default, unauthenticated session for an id.
func NewSession(id string) Session {
	return Session{
		ID:   id,
		Flow: FlowUnauthenticated,
	}
}

// ResetFlow drops any in-flight flow data and parks the session in the given state.
func (s *Session) ResetFlow(flow FlowState) {
	s.Flow = flow
	s.Scratch = Scratch{}
}
