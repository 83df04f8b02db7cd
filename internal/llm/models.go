package llm

// DefaultModel is used for any unrecognised model name.
const DefaultModel = "mistral:latest"

// ModelMap maps the dashboard's model names to Ollama model names.
var ModelMap = map[string]string{
	"mistral":  "mistral:latest",
	"llama3.1": "llama3.1:latest",
	"phi3":     "phi3:latest",
	"gemma2":   "gemma2:latest",
	"qwen2.5":  "qwen2.5:latest",
}

// ResolveModel returns the Ollama name of a dashboard model name, falling
// back to DefaultModel.
func ResolveModel(name string) string {
	if full, ok := ModelMap[name]; ok {
		return full
	}
	return DefaultModel
}
