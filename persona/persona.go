package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SystemContext is the fixed persona injected as the first message of every
// provider call.
type SystemContext struct {
	Instructions  string `yaml:"instructions"`
	KnowledgeBase string `yaml:"knowledgeBase"`
}

// SystemMessage returns the content of the system message.
func (sc SystemContext) SystemMessage() string {
	return sc.Instructions + "\n\nRESUME CONTEXT:\n" + sc.KnowledgeBase
}

// Settings are the provider call parameters. They are not per-request options.
type Settings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float64 `yaml:"temperature"`
}

var DefaultSettings = Settings{
	Model:       "gpt-3.5-turbo",
	MaxTokens:   500,
	Temperature: 0.7,
}

type Persona struct {
	Name     string        `yaml:"name"`
	Greeting string        `yaml:"greeting"`
	Context  SystemContext `yaml:"context"`
	Settings Settings      `yaml:"settings"`
}

//go:embed default.yaml
var defaultPersona []byte

// Default returns the embedded persona.
func Default() Persona {
	p, err := Parse(defaultPersona)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded default is invalid: %v", err))
	}
	return p
}

var (
	ErrMissingInstructions = errors.New("persona: instructions are required")
	ErrInvalidMaxTokens    = errors.New("persona: max tokens must be positive")
	ErrInvalidTemperature  = errors.New("persona: temperature must be between 0 and 2")
)

// Parse reads a persona from YAML. Settings left unset fall back to DefaultSettings.
func Parse(data []byte) (p Persona, err error) {
	if err = yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("persona: failed to parse: %w", err)
	}
	if p.Settings.Model == "" {
		p.Settings.Model = DefaultSettings.Model
	}
	if p.Settings.MaxTokens == 0 {
		p.Settings.MaxTokens = DefaultSettings.MaxTokens
	}
	if p.Settings.Temperature == 0 {
		p.Settings.Temperature = DefaultSettings.Temperature
	}
	return p, p.Validate()
}

func (p Persona) Validate() error {
	if strings.TrimSpace(p.Context.Instructions) == "" {
		return ErrMissingInstructions
	}
	if p.Settings.MaxTokens < 0 {
		return ErrInvalidMaxTokens
	}
	if p.Settings.Temperature < 0 || p.Settings.Temperature > 2 {
		return ErrInvalidTemperature
	}
	return nil
}

// Load reads the persona from the named file, or returns the embedded default
// if name is empty.
func Load(name string) (p Persona, err error) {
	if name == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return p, fmt.Errorf("persona: failed to read file %s: %w", name, err)
	}
	return Parse(data)
}

// Marshal encodes the persona as YAML.
func (p Persona) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
