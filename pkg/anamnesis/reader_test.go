package anamnesis

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	csv := "\uFEFFname;age;complaint;notes\nAna; 34 ;knee pain when running\nBruno;50;none;x\n"

	got, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	expected := "name: Ana\nage: 34\ncomplaint: knee pain when running\nnotes: \n"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestReadQuotedField(t *testing.T) {
	csv := "goal;history\n\"lose weight; gain muscle\";\"asthma\"\n"

	got, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !strings.Contains(got, "goal: lose weight; gain muscle\n") {
		t.Errorf("Quoted delimiter should be kept, got %q", got)
	}
}

func TestReadNoRecords(t *testing.T) {
	for _, csv := range []string{"", "name;age\n"} {
		if _, err := Read(strings.NewReader(csv)); !errors.Is(err, ErrNoRecords) {
			t.Errorf("Read(%q): expected ErrNoRecords, got %v", csv, err)
		}
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.csv")
	if err := os.WriteFile(path, []byte("sleep;water\n6h;1L\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got != "sleep: 6h\nwater: 1L\n" {
		t.Errorf("Unexpected text %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Expected error for a missing file")
	}
}
