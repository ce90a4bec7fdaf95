/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// Question is a single entry in the question bank. The bank is loaded once
// at startup and shared read-only by every room.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"answer"`
}

//go:embed questions.json
var defaultQuestions []byte

func parseQuestions(data []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	for i, q := range questions {
		if q.Text == "" {
			return nil, fmt.Errorf("question %d: empty question text", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return nil, fmt.Errorf("question %d: answer index %d out of range", i, q.CorrectIndex)
		}
	}

	return questions, nil
}

// loadQuestions returns the bank from the given file, or the embedded
// default bank when no path is configured.
func loadQuestions(cfg *Config) ([]Question, error) {
	if cfg.questions == "" {
		return parseQuestions(defaultQuestions)
	}

	data, err := os.ReadFile(cfg.questions)
	if err != nil {
		return nil, err
	}

	return parseQuestions(data)
}
