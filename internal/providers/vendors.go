package providers

import (
	"os"
	"strings"
)

type vendor struct {
	baseURL      string
	defaultModel string
	keyEnv       string
}

// OpenAI-compatible vendors share one adapter; gemini has its own.
var vendors = map[string]vendor{
	"groq":       {baseURL: "https://api.groq.com/openai/v1", defaultModel: "llama-3.1-8b-instant", keyEnv: "GROQ_API_KEY"},
	"deepinfra":  {baseURL: "https://api.deepinfra.com/v1/openai", defaultModel: "meta-llama/Meta-Llama-3.1-8B-Instruct", keyEnv: "DEEPINFRA_API_KEY"},
	"openai":     {baseURL: "https://api.openai.com/v1", defaultModel: "gpt-4o-mini", keyEnv: "OPENAI_API_KEY"},
	"perplexity": {baseURL: "https://api.perplexity.ai", defaultModel: "sonar", keyEnv: "PERPLEXITY_API_KEY"},
	"gemini":     {baseURL: "https://generativelanguage.googleapis.com/v1beta", defaultModel: "gemini-1.5-flash", keyEnv: "GEMINI_API_KEY"},
}

// resolveKey prefers ASKFOLIO_<VENDOR>_KEY_<ALIAS> and falls back to the
// vendor's own env name.
func resolveKey(name, alias string) string {
	if alias != "" {
		if v := os.Getenv("ASKFOLIO_" + strings.ToUpper(name) + "_KEY_" + strings.ToUpper(alias)); v != "" {
			return strings.TrimSpace(v)
		}
	}
	v, ok := vendors[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(os.Getenv(v.keyEnv))
}

func resolveModel(name string) string {
	if m := strings.TrimSpace(os.Getenv("ASKFOLIO_" + strings.ToUpper(name) + "_MODEL")); m != "" {
		return m
	}
	return vendors[name].defaultModel
}
