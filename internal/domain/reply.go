package domain

// KeyboardHint tells the transport which reply keyboard to attach.
type KeyboardHint int

const (
	KeyboardNone KeyboardHint = iota
	KeyboardMainMenu
)

// Main menu labels. Menu matching ignores the numeric prefix.
const (
	MenuViewProducts   = "View All Products"
	MenuEditAttributes = "Edit Product Attributes"
	MenuAddProduct     = "Add New Product"
)

// MainMenu is the rendered button set for KeyboardMainMenu.
var MainMenu = []string{
	"1. " + MenuViewProducts,
	"2. " + MenuEditAttributes,
	"3. " + MenuAddProduct,
}

// Buttons returns the button labels for the hint.
func (k KeyboardHint) Buttons() []string {
	if k == KeyboardMainMenu {
		return append([]string(nil), MainMenu...)
	}
	return nil
}

// Reply is one outbound message produced by the conversation engine.
type Reply struct {
	SessionID string       `json:"session_id"`
	Text      string       `json:"text"`
	Keyboard  KeyboardHint `json:"keyboard"`
}
