package survey

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrEmptyCatalog is returned when a catalog defines no surveys.
var ErrEmptyCatalog = errors.New("survey: catalog has no surveys")

// Catalog holds the surveys respondents can take.
type Catalog struct {
	defaultID string
	surveys   map[string]Survey
	order     []string
}

type catalogFile struct {
	Default string   `yaml:"default"`
	Surveys []Survey `yaml:"surveys" validate:"required,min=1,dive"`
}

// DefaultCatalog loads the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and validates a YAML catalog definition.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("survey: decode catalog: %w", err)
	}
	if len(file.Surveys) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("survey: validate catalog: %w", err)
	}

	c := &Catalog{defaultID: file.Default, surveys: make(map[string]Survey, len(file.Surveys))}
	for _, s := range file.Surveys {
		if _, dup := c.surveys[s.ID]; dup {
			return nil, fmt.Errorf("survey: duplicate survey id %q", s.ID)
		}
		seen := make(map[string]struct{}, len(s.Questions))
		for _, q := range s.Questions {
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("survey %s: %w", s.ID, err)
			}
			if _, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("survey %s: duplicate question id %q", s.ID, q.ID)
			}
			seen[q.ID] = struct{}{}
		}
		c.surveys[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	if c.defaultID == "" {
		c.defaultID = c.order[0]
	}
	if _, ok := c.surveys[c.defaultID]; !ok {
		return nil, fmt.Errorf("survey: default survey %q not defined", c.defaultID)
	}
	return c, nil
}

// Get returns the survey with id, falling back to the default survey.
func (c *Catalog) Get(id string) Survey {
	if s, ok := c.surveys[id]; ok {
		return s
	}
	return c.surveys[c.defaultID]
}

// Lookup returns the survey with id without falling back.
func (c *Catalog) Lookup(id string) (Survey, bool) {
	s, ok := c.surveys[id]
	return s, ok
}

// Default returns the default survey.
func (c *Catalog) Default() Survey {
	return c.surveys[c.defaultID]
}

// List returns every survey in definition order.
func (c *Catalog) List() []Survey {
	out := make([]Survey, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.surveys[id])
	}
	return out
}
