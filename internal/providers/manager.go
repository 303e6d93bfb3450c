package providers

import (
	"fmt"
	"net/http"
	"strings"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager holds the configured providers, in cascade order, that have
// credentials present.
type Manager struct {
	llmProviders []NamedLLMProvider
	skipped      []ProviderRef
}

// NewManager builds adapters for every entry of the "|"-separated list.
// Entries without credentials are skipped, unknown names are an error.
func NewManager(list string, httpClient *http.Client) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(list) {
		p, ok, err := buildProvider(ref, httpClient)
		if err != nil {
			return nil, err
		}
		if !ok {
			m.skipped = append(m.skipped, ref)
			continue
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	return m, nil
}

// NewStaticManager wraps already-built providers, mainly for tests.
func NewStaticManager(ps ...NamedLLMProvider) *Manager {
	return &Manager{llmProviders: append([]NamedLLMProvider(nil), ps...)}
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

// Order returns the providers in cascade order with mock entries last.
func (m *Manager) Order() []NamedLLMProvider {
	idx := preferredOrder(len(m.llmProviders), func(i int) string { return m.llmProviders[i].Ref.Name })
	out := make([]NamedLLMProvider, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.llmProviders[i])
	}
	return out
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.llmProviders))
	for _, p := range m.Order() {
		out = append(out, p.Ref.Raw)
	}
	return out
}

// Skipped lists the configured entries that were dropped for missing credentials.
func (m *Manager) Skipped() []ProviderRef {
	return append([]ProviderRef(nil), m.skipped...)
}

func (m *Manager) FindLLMProviderByName(name string) (LLMProvider, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.llmProviders {
		if m.llmProviders[i].Ref.Name == target || strings.ToLower(m.llmProviders[i].Ref.Raw) == target {
			return m.llmProviders[i].Provider, m.llmProviders[i].Ref, true
		}
	}
	return nil, ProviderRef{}, false
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ref ProviderRef, httpClient *http.Client) (LLMProvider, bool, error) {
	if ref.Name == "mock" {
		return NewMockProvider(), true, nil
	}
	v, ok := vendors[ref.Name]
	if !ok {
		return nil, false, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
	key := resolveKey(ref.Name, ref.KeyAlias)
	if key == "" {
		return nil, false, nil
	}
	model := resolveModel(ref.Name)
	if ref.Name == "gemini" {
		return NewGeminiProvider(v.baseURL, key, model, ref.KeyAlias, httpClient), true, nil
	}
	return NewOpenAICompatProvider(ref.Name, v.baseURL, key, model, ref.KeyAlias, httpClient), true, nil
}
