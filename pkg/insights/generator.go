// Package insights turns a patient intake into professional-facing insights
// using a hosted language model.
package insights

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/posture-analyzer/pkg/client"
)

var (
	// ErrInvalidRole is returned for a professional role other than nutritionist or trainer
	ErrInvalidRole = errors.New("invalid role: use 'nutritionist' or 'trainer'")
	// ErrEmptyAnamnesis is returned when there is no intake text to analyze
	ErrEmptyAnamnesis = errors.New("empty anamnesis")
)

// Role selects the professional audience of the insights
type Role string

const (
	RoleNutritionist Role = "nutritionist"
	RoleTrainer      Role = "trainer"
)

var roleAliases = map[string]Role{
	"nutritionist":  RoleNutritionist,
	"nutricionist":  RoleNutritionist,
	"nutricionista": RoleNutritionist,
	"nutri":         RoleNutritionist,
	"trainer":       RoleTrainer,
	"personal":      RoleTrainer,
	"treinador":     RoleTrainer,
}

// ParseRole converts a client label into a Role
func ParseRole(label string) (Role, error) {
	if r, ok := roleAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, label)
}

// Prompt returns the system instruction for r
func (r Role) Prompt() string {
	switch r {
	case RoleNutritionist:
		return NutritionistPrompt
	case RoleTrainer:
		return TrainerPrompt
	}
	return ""
}

// Result is the answer for one role
type Result struct {
	Role    Role     `json:"role"`
	Text    string   `json:"insights"`
	Bullets []string `json:"bullets"`
	Source  string   `json:"source"`
}

// Generator handles insight generation using a chat client
type Generator struct {
	client client.ChatClient
}

// NewGenerator creates a new generator with a chat client
func NewGenerator(client client.ChatClient) *Generator {
	return &Generator{client: client}
}

// Generate asks the model for insights about anamnesis addressed to role
func (g *Generator) Generate(ctx context.Context, role Role, anamnesis string) (*Result, error) {
	system := role.Prompt()
	if system == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, string(role))
	}
	if strings.TrimSpace(anamnesis) == "" {
		return nil, ErrEmptyAnamnesis
	}

	answer, err := g.client.Complete(ctx, system, anamnesis)
	if err != nil {
		return nil, fmt.Errorf("insight generation failed: %w: %w", client.ErrBackend, err)
	}

	text := strings.TrimSpace(answer)
	return &Result{
		Role:    role,
		Text:    text,
		Bullets: Bullets(text),
		Source:  g.client.SourceName(),
	}, nil
}

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// Bullets splits a model answer into list items, dropping list markers,
// markdown emphasis and blank lines. Lines that continue an item are joined
// to it.
func Bullets(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marked := listMarker.MatchString(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.ReplaceAll(line, "**", "")
		if line == "" {
			continue
		}
		if !marked && len(items) > 0 && !strings.HasSuffix(items[len(items)-1], ":") {
			items[len(items)-1] += " " + line
			continue
		}
		items = append(items, line)
	}
	return items
}
