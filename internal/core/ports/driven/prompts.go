package driven

// Prompt names known to the prompt store.
const (
	// PromptDescribe is the instruction sent to the vision model per image.
	PromptDescribe = "describe"
)

// PromptStore loads user-editable prompt templates by name.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cache, forcing fresh loads from storage.
	Reload()

	// Dir returns the prompt directory path.
	Dir() string
}
