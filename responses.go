package moviebot

// User-facing messages.
const (
	msgGenreUnknown        = "You did not tell me your preferred movie genre."
	msgGenreConfirmed      = "Your preferred movie genre is %s."
	msgRecommendations     = "Here are 5 recommendations for %s movies:\n- %s"
	msgNoRecommendations   = "Sorry, I could not find any recommendations for that genre."
	msgProfileSummary      = "Name: %s, Age: %s, Email: %s, Favorite Genre: %s"
	msgProfileNotFound     = "User profile not found."
	msgProfileFound        = "Found user profile for %s %s (ID: %s)"
	msgNeedIdentity        = "Please tell me your first and last name so I can find your profile."
	msgNeedAgeAndGenre     = "I need your age and favorite genre to make personalized recommendations."
	msgNeedBothAgeAndGenre = "I need both your age and favorite genre to provide recommendations."
	msgNeedPrompt          = "Please tell me what you would like me to write about."
	msgGenerationFailed    = "Sorry, I could not come up with recommendations right now. Please try again later."
	msgStoreFailed         = "Sorry, I could not reach your profile right now. Please try again later."
	msgAgeNotNumber        = "Please provide a valid age as a number."
	msgAgeOutOfRange       = "Please provide a valid age between 0 and 120."
	msgInvalidEmail        = "Please provide a valid email address."
	msgInvalidProfile      = "Some of your profile details look invalid, please check them and try again."
	msgNeedAge             = "I need your age to save your profile."
	msgUnknownField        = "I'm not sure what field you're trying to update."
	msgInternalError       = "Sorry, something went wrong on my side. Please try again."
	notAvailable           = "N/A"
)

// intentResponses are the canned replies for intents the dialogue policy did
// not expect at this point of the conversation.
var intentResponses = map[string]string{
	"greet":    "Hello! How can I assist you today?",
	"goodbye":  "Goodbye! Feel free to return if you have more questions.",
	"fallback": "I'm sorry, I didn't understand. Can you please rephrase your question?",
}

const defaultIntentResponse = "I'm not sure how to respond to that. Please ask me something else."

// IntentResponse returns the canned reply for intent, or the default reply.
func IntentResponse(intent string) string {
	if r, ok := intentResponses[intent]; ok {
		return r
	}
	return defaultIntentResponse
}
