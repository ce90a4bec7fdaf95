package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultQuestionBank(t *testing.T) {
	questions, err := parseQuestions(defaultQuestions)
	if err != nil {
		t.Fatalf("embedded bank failed to parse: %v", err)
	}

	if len(questions) != 10 {
		t.Errorf("expected 10 embedded questions, got %d", len(questions))
	}

	first := questions[0]
	if first.Text != "What planet is known as the Red Planet?" {
		t.Errorf("unexpected first question: %q", first.Text)
	}
	if first.Options[first.CorrectIndex] != "Mars" {
		t.Errorf("unexpected answer: %q", first.Options[first.CorrectIndex])
	}
}

func TestParseQuestionsRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty list", `[]`},
		{"not json", `{{`},
		{"missing text", `[{"question":"","options":["a","b","c","d"],"answer":0}]`},
		{"three options", `[{"question":"q","options":["a","b","c"],"answer":0}]`},
		{"five options", `[{"question":"q","options":["a","b","c","d","e"],"answer":0}]`},
		{"answer too high", `[{"question":"q","options":["a","b","c","d"],"answer":4}]`},
		{"negative answer", `[{"question":"q","options":["a","b","c","d"],"answer":-1}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseQuestions([]byte(tc.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadQuestionsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	data := `[{"question":"q","options":["a","b","c","d"],"answer":3}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.questions = path

	questions, err := loadQuestions(cfg)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectIndex != 3 {
		t.Errorf("unexpected bank: %+v", questions)
	}
}

func TestLoadQuestionsMissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.questions = filepath.Join(t.TempDir(), "missing.json")

	if _, err := loadQuestions(cfg); err == nil {
		t.Error("expected an error for a missing bank file")
	}
}
