package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the engine.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptDecideParams asks the model to choose retrieval parameters for
	// a question. The template expects %s (group list) and %s (question)
	// placeholders and must instruct the model to answer with JSON.
	PromptDecideParams = "decide_params"

	// PromptAnswerSystem is the system prompt for the answer step. It
	// instructs the model to use retrieved context only when relevant.
	// The template expects a %s placeholder for the retrieved context.
	PromptAnswerSystem = "answer_system"
)
