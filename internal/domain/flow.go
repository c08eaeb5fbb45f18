// Package domain defines the core domain models for the catalog console.
package domain

// FlowState is the tag of the step a session is currently waiting on.
type FlowState string

const (
	FlowUnauthenticated FlowState = "unauthenticated"

	// Login flow
	FlowAwaitingUsername FlowState = "awaiting_username"
	FlowAwaitingPassword FlowState = "awaiting_password"

	FlowMenuIdle FlowState = "menu_idle"

	// Edit-attribute flow
	FlowAwaitEditProductID   FlowState = "await_edit_product_id"
	FlowAwaitEditAttributeID FlowState = "await_edit_attribute_id"
	FlowAwaitEditValue       FlowState = "await_edit_value"

	// Add-product flow
	FlowAwaitAddName        FlowState = "await_add_name"
	FlowAwaitAddPrice       FlowState = "await_add_price"
	FlowAwaitAddStock       FlowState = "await_add_stock"
	FlowAwaitAddDescription FlowState = "await_add_description"
)

// Transitions lists every legal edge of the conversation state machine.
// Self-loops are re-prompts after a validation failure (or a view that keeps
// the operator idle). The global /start, /cancel and /logout commands are
// allowed from every state and are listed explicitly.
var Transitions = map[FlowState][]FlowState{
	FlowUnauthenticated:  {FlowUnauthenticated, FlowAwaitingUsername},
	FlowAwaitingUsername: {FlowAwaitingPassword},
	FlowAwaitingPassword: {FlowMenuIdle, FlowUnauthenticated},
	FlowMenuIdle: {
		FlowMenuIdle,
		FlowAwaitEditProductID,
		FlowAwaitAddName,
	},
	FlowAwaitEditProductID:   {FlowAwaitEditProductID, FlowAwaitEditAttributeID, FlowMenuIdle},
	FlowAwaitEditAttributeID: {FlowAwaitEditAttributeID, FlowAwaitEditValue},
	FlowAwaitEditValue:       {FlowMenuIdle},
	FlowAwaitAddName:         {FlowAwaitAddPrice},
	FlowAwaitAddPrice:        {FlowAwaitAddPrice, FlowAwaitAddStock},
	FlowAwaitAddStock:        {FlowAwaitAddStock, FlowAwaitAddDescription},
	FlowAwaitAddDescription:  {FlowMenuIdle},
}

// commandTargets are reachable from any state through a global command.
var commandTargets = []FlowState{FlowAwaitingUsername, FlowUnauthenticated, FlowMenuIdle}

// CanTransition reports whether the state machine may move from one state to another.
func CanTransition(from, to FlowState) bool {
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionByCommand reports whether a global command may move the session to the given state.
func CanTransitionByCommand(to FlowState) bool {
	for _, s := range commandTargets {
		if s == to {
			return true
		}
	}
	return false
}

// IsLoginFlow reports whether the state belongs to the login sub-flow.
func (f FlowState) IsLoginFlow() bool {
	switch f {
	case FlowUnauthenticated, FlowAwaitingUsername, FlowAwaitingPassword:
		return true
	}
	return false
}

// Valid reports whether the state is a known state.
func (f FlowState) Valid() bool {
	_, ok := Transitions[f]
	return ok
}
