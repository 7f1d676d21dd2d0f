// Package ingest turns admin-uploaded CSV files into validated questions.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"wumpus-maze-service/internal/domain"
)

// ParseQuestionsCSV reads rows shaped like
//
//	question,option1,option2,option3,option4,correct_answer,category,difficulty,explanation
//
// Header names are matched case-insensitively and may use spaces
// ("option 1", "correct answer"). Rows with fewer than two options or a
// correct_answer that matches no option are skipped, as the admin tool has
// always tolerated ragged spreadsheets. An entirely unusable file is an error.
func ParseQuestionsCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}
	if _, ok := index["question"]; !ok {
		return nil, fmt.Errorf("csv missing question column")
	}

	var questions []domain.Question
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		options := make([]string, 0, 4)
		for _, col := range []string{"option1", "option2", "option3", "option4"} {
			if opt := field(col); opt != "" {
				options = append(options, opt)
			}
		}
		if field("question") == "" || len(options) < 2 {
			continue
		}

		correct := field("correct_answer")
		correctIndex := -1
		for i, opt := range options {
			if strings.EqualFold(opt, correct) {
				correctIndex = i
				break
			}
		}
		if correctIndex == -1 {
			continue
		}

		questions = append(questions, domain.Question{
			ID:            len(questions) + 1,
			Question:      field("question"),
			Options:       options,
			CorrectAnswer: correctIndex,
			Category:      category(field("category")),
			Difficulty:    difficulty(field("difficulty")),
			Explanation:   field("explanation"),
		})
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("csv contained no usable questions")
	}
	return questions, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "option_", "option")
}

func category(raw string) string {
	if strings.Contains(strings.ToLower(raw), "emerging") {
		return "emerging-tech"
	}
	return "general-tech"
}

func difficulty(raw string) domain.Difficulty {
	switch strings.ToLower(raw) {
	case "easy":
		return domain.DifficultyEasy
	case "hard":
		return domain.DifficultyHard
	default:
		return domain.DifficultyMedium
	}
}
