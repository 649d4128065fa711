// Package catalog loads the static method catalog, questionnaire and
// telehealth provider list. A catalog is validated once when it is loaded and
// is read-only afterwards, so a single instance can be shared by any number of
// concurrent requests.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/contraceptive-compass-server/internal/domain"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// Catalog is an immutable, validated method catalog.
type Catalog struct {
	version    string
	methods    []domain.Method
	byName     map[string]int
	questions  []domain.Question
	telehealth []domain.TelehealthOption
}

type catalogFile struct {
	Version    string                    `json:"version"`
	Methods    []domain.Method           `json:"methods"`
	Questions  []domain.Question         `json:"questions"`
	Telehealth []domain.TelehealthOption `json:"telehealth"`
}

// LoadDefault loads the catalog compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

// LoadPath loads the catalog at path, or the built-in one when path is empty.
func LoadPath(path string) (*Catalog, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}

// Load parses, validates and indexes a YAML catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidCatalog, err)
	}

	// Round-trip through JSON so schema validation and decoding see the
	// same value types regardless of YAML scalar styles.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: convert to json: %v", domain.ErrInvalidCatalog, err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidCatalog, err)
	}

	return build(file)
}

func build(file catalogFile) (*Catalog, error) {
	c := &Catalog{
		version:    file.Version,
		methods:    make([]domain.Method, 0, len(file.Methods)),
		byName:     make(map[string]int, len(file.Methods)),
		questions:  file.Questions,
		telehealth: file.Telehealth,
	}

	for i, m := range file.Methods {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%w: method %d: %w", domain.ErrInvalidCatalog, i, err)
		}
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrInvalidCatalog, domain.ErrDuplicateMethod, m.Name)
		}
		if m.Cons == nil {
			m.Cons = []string{}
		}
		c.byName[m.Name] = len(c.methods)
		c.methods = append(c.methods, m.WithCapabilities())
	}

	seen := make(map[string]bool, len(file.Questions))
	for _, q := range file.Questions {
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: duplicate question id %s", domain.ErrInvalidCatalog, q.ID)
		}
		seen[q.ID] = true
	}

	return c, nil
}

// Version identifies the catalog contents. It is part of every result cache key.
func (c *Catalog) Version() string {
	return c.version
}

// Methods returns the methods in catalog order. The slice is a copy; the
// methods' list fields are shared and must not be modified.
func (c *Catalog) Methods() []domain.Method {
	out := make([]domain.Method, len(c.methods))
	copy(out, c.methods)
	return out
}

// Len is the number of methods in the catalog.
func (c *Catalog) Len() int {
	return len(c.methods)
}

// Method looks a method up by its exact name.
func (c *Catalog) Method(name string) (domain.Method, error) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Method{}, fmt.Errorf("method %q: %w", name, domain.ErrNotFound)
	}
	return c.methods[i], nil
}

// Questions returns the questionnaire in display order.
func (c *Catalog) Questions() []domain.Question {
	out := make([]domain.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Question looks a question up by id. Positional aliases (q1..q7) resolve to
// their descriptive ids.
func (c *Catalog) Question(id string) (domain.Question, error) {
	if canonical, ok := domain.QuestionAliases[id]; ok {
		id = canonical
	}
	for _, q := range c.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Question{}, fmt.Errorf("question %q: %w", id, domain.ErrNotFound)
}

// Telehealth returns the telehealth providers in display order.
func (c *Catalog) Telehealth() []domain.TelehealthOption {
	out := make([]domain.TelehealthOption, len(c.telehealth))
	copy(out, c.telehealth)
	return out
}
