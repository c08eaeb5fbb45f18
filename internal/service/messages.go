package service

const (
	msgWelcome        = "Welcome! Please enter your username:"
	msgPasswordPrompt = "Please enter your password:"
	msgLoginOK        = "✅ Login successful."
	msgLoginFailed    = "❌ Invalid credentials. Type /start to try again."
	msgPleaseLogin    = "Please login first using /start"
	msgLoggedOut      = "👋 Logged out. Type /start to login again."
	msgCancelled      = "Cancelled. Back to the main menu."
	msgUnrecognized   = "🤔 Unrecognized command. Please choose an option from the menu."
	msgDatabaseError  = "❌ Database error occurred."

	msgNoProducts = "No products found."

	msgEditProductPrompt    = "🆔 Please enter the Product ID you want to edit:"
	msgProductIDNotNumber   = "❌ Error: ID must be a number."
	msgProductNotFound      = "❌ Product ID not found. Return to menu."
	msgNoAttributes         = "No attributes defined in the system."
	msgAttributeIDNotNumber = "❌ Error: Attribute ID must be a number."
	msgAttributeIDPrompt    = "👇 Enter the Attribute ID you wish to change or add:"
	msgValuePrompt          = "✍️ Enter the new value for this attribute:"
	msgAttributeUpdated     = "✅ Attribute updated successfully."

	msgAddNamePrompt       = "📝 Enter the name of the new product:"
	msgPricePrompt         = "💰 Enter the Price:"
	msgStockPrompt         = "🔢 Enter the Stock Quantity:"
	msgDescriptionPrompt   = "📝 Enter the Description:"
	msgInvalidPrice        = "❌ Error: Price must be a non-negative number."
	msgInvalidStock        = "❌ Error: Stock must be a non-negative whole number."
	msgProductCreated      = "✅ Product created successfully!\nUse 'Edit Product Attributes' to add details."
	msgProductCreateFailed = "❌ Failed to create product."
)

// reprompt pairs a validation error with the prompt for the same input.
func reprompt(problem, prompt string) string {
	return problem + "\n" + prompt
}
