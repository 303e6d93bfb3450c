// Package kb holds the hand-authored knowledge base that ships with the binary.
package kb

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"askfolio/internal/models"

	"github.com/pelletier/go-toml/v2"
)

//go:embed kb.toml
var embedded []byte

type KB struct {
	units     []models.TextUnit
	overviews map[models.Topic]string
}

type file struct {
	Units []entry `toml:"unit"`
}

type entry struct {
	ID       string `toml:"id"`
	Topic    string `toml:"topic"`
	Overview bool   `toml:"overview"`
	Title    string `toml:"title"`
	Body     string `toml:"body"`
}

// Default returns the embedded knowledge base.
func Default() (*KB, error) {
	return Parse(embedded)
}

// Load reads a knowledge base file, falling back to the embedded one when path is empty.
func Load(path string) (*KB, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kb file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*KB, error) {
	var f file
	if err := toml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode kb: %w", err)
	}
	out := &KB{overviews: map[models.Topic]string{}}
	seen := map[string]struct{}{}
	for _, e := range f.Units {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("kb unit %q has no id", e.Title)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate kb unit id %q", id)
		}
		seen[id] = struct{}{}
		tag := models.Topic(strings.TrimSpace(e.Topic))
		if tag != models.TopicAny {
			if _, ok := models.ParseTopic(string(tag)); !ok || tag == models.TopicAll {
				return nil, fmt.Errorf("kb unit %q has unknown topic %q", id, e.Topic)
			}
		}
		if e.Overview {
			if tag == models.TopicAny {
				return nil, fmt.Errorf("kb unit %q: overview must belong to a single topic", id)
			}
			if prev, ok := out.overviews[tag]; ok {
				return nil, fmt.Errorf("topic %s has two overview units: %s, %s", tag, prev, id)
			}
			out.overviews[tag] = id
		}
		out.units = append(out.units, models.TextUnit{
			ID:       id,
			Kind:     models.KindKB,
			Title:    strings.TrimSpace(e.Title),
			Body:     strings.TrimSpace(e.Body),
			TopicTag: tag,
		})
	}
	for _, d := range models.Domains {
		if _, ok := out.overviews[d]; !ok {
			return nil, fmt.Errorf("topic %s has no overview unit", d)
		}
	}
	return out, nil
}

// New builds a knowledge base from fixed units, mainly for tests.
func New(units []models.TextUnit, overviews map[models.Topic]string) *KB {
	cp := make([]models.TextUnit, len(units))
	copy(cp, units)
	ov := make(map[models.Topic]string, len(overviews))
	for k, v := range overviews {
		ov[k] = v
	}
	return &KB{units: cp, overviews: ov}
}

// Units returns a copy so callers cannot mutate the deployed set.
func (k *KB) Units() []models.TextUnit {
	out := make([]models.TextUnit, len(k.units))
	copy(out, k.units)
	return out
}

// Overview returns the canonical unit for a scoped topic.
func (k *KB) Overview(t models.Topic) (models.TextUnit, bool) {
	id, ok := k.overviews[t]
	if !ok {
		return models.TextUnit{}, false
	}
	for _, u := range k.units {
		if u.ID == id {
			return u, true
		}
	}
	return models.TextUnit{}, false
}
