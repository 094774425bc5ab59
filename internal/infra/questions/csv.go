// Package questions loads and serves the trivia question bank.
// Questions arrive as CSV exports and are stored in SQLite; Bank hands
// the session engine a shuffled, difficulty-filtered set per level.
package questions

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/whylee-play/whylee/internal/domain"
)

// CSV column layout. Difficulty is optional and defaults to normal.
const (
	colQuestion = iota
	colOptionA
	colOptionB
	colOptionC
	colOptionD
	colCorrectIndex
	colExplanation
	colLevel
	colDifficulty

	minColumns = colLevel + 1
)

// ParseCSV reads questions from a CSV export. A leading header row is
// detected and skipped. Every row must validate; one bad row fails the
// whole import so a partial bank never reaches storage.
func ParseCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may omit the difficulty column

	var questions []domain.Question
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrBadCSVRow, line+1, err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}

		q, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, domain.ErrEmptyBank
	}
	return questions, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "question")
}

func parseRow(record []string) (domain.Question, error) {
	var q domain.Question

	if len(record) < minColumns {
		return q, fmt.Errorf("%w: %d columns, need at least %d",
			domain.ErrBadCSVRow, len(record), minColumns)
	}

	q.Text = strings.TrimSpace(record[colQuestion])

	// Trailing empty options mean fewer choices, not blank ones.
	for _, col := range []int{colOptionA, colOptionB, colOptionC, colOptionD} {
		choice := strings.TrimSpace(record[col])
		if choice == "" {
			break
		}
		q.Choices = append(q.Choices, choice)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(record[colCorrectIndex]))
	if err != nil {
		return q, fmt.Errorf("%w: correct index %q", domain.ErrBadCSVRow, record[colCorrectIndex])
	}
	q.CorrectIndex = idx

	q.Explanation = strings.TrimSpace(record[colExplanation])

	level, err := strconv.Atoi(strings.TrimSpace(record[colLevel]))
	if err != nil {
		return q, fmt.Errorf("%w: level %q", domain.ErrBadCSVRow, record[colLevel])
	}
	q.Level = level

	q.Difficulty = domain.DifficultyNormal
	if len(record) > colDifficulty {
		if d := strings.TrimSpace(record[colDifficulty]); d != "" {
			q.Difficulty = domain.Difficulty(strings.ToLower(d))
		}
	}

	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}
