package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/stubllm"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		label    string
		expected Role
	}{
		{"nutritionist", RoleNutritionist},
		{"Nutricionist", RoleNutritionist},
		{" nutri ", RoleNutritionist},
		{"trainer", RoleTrainer},
		{"PERSONAL", RoleTrainer},
	}

	for _, test := range tests {
		got, err := ParseRole(test.label)
		if err != nil {
			t.Errorf("ParseRole(%q) failed: %v", test.label, err)
			continue
		}
		if got != test.expected {
			t.Errorf("ParseRole(%q): expected %s, got %s", test.label, test.expected, got)
		}
	}

	if _, err := ParseRole("physio"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	stub := stubllm.NewClient()
	g := NewGenerator(stub)

	result, err := g.Generate(context.Background(), RoleTrainer, "age: 42\ncomplaint: low back pain\n")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Role != RoleTrainer {
		t.Errorf("Expected trainer, got %s", result.Role)
	}
	if result.Source != "Stub" {
		t.Errorf("Expected source Stub, got %s", result.Source)
	}
	if len(result.Bullets) != 3 {
		t.Errorf("Expected 3 bullets, got %d: %v", len(result.Bullets), result.Bullets)
	}

	calls := stub.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected one call, got %d", len(calls))
	}
	if calls[0].System != TrainerPrompt {
		t.Error("Expected the trainer system prompt")
	}
	if !strings.Contains(calls[0].User, "low back pain") {
		t.Error("Expected the anamnesis as the user message")
	}
}

func TestGenerateErrors(t *testing.T) {
	g := NewGenerator(stubllm.NewClient())

	if _, err := g.Generate(context.Background(), Role("chef"), "age: 30"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
	if _, err := g.Generate(context.Background(), RoleNutritionist, "  \n"); !errors.Is(err, ErrEmptyAnamnesis) {
		t.Errorf("Expected ErrEmptyAnamnesis, got %v", err)
	}

	boom := errors.New("quota exceeded")
	failing := NewGenerator(stubllm.NewFailing(boom))
	if _, err := failing.Generate(context.Background(), RoleNutritionist, "age: 30"); !errors.Is(err, boom) || !errors.Is(err, client.ErrBackend) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
}

func TestBullets(t *testing.T) {
	text := `Points of attention:

- **Low protein intake** relative to training volume.
* Possible iron deficiency
  given reported fatigue.
1. Irregular meal timing.
2) High sodium intake.
• Dehydration risk.`

	got := Bullets(text)
	expected := []string{
		"Points of attention:",
		"Low protein intake relative to training volume.",
		"Possible iron deficiency given reported fatigue.",
		"Irregular meal timing.",
		"High sodium intake.",
		"Dehydration risk.",
	}

	if len(got) != len(expected) {
		t.Fatalf("Expected %d bullets, got %d: %q", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Bullet %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestBulletsEmpty(t *testing.T) {
	if got := Bullets("  \n\n"); len(got) != 0 {
		t.Errorf("Expected no bullets, got %v", got)
	}
}
