package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/whylee-play/whylee/internal/domain"
)

// ─── Question Bank ──────────────────────────────────────────────────────────

// InsertQuestions bulk-inserts validated questions in one transaction.
func (d *DB) InsertQuestions(questions []domain.Question) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO questions (text, choices, correct_index, explanation, level, difficulty)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range questions {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(q.Text, string(choices), q.CorrectIndex,
			q.Explanation, q.Level, string(q.Difficulty))
		if err != nil {
			return fmt.Errorf("insert question %q: %w", q.Text, err)
		}
	}
	return tx.Commit()
}

// QuestionsForLevel returns all questions tagged with the given level.
func (d *DB) QuestionsForLevel(level int) ([]domain.Question, error) {
	rows, err := d.db.Query(
		`SELECT text, choices, correct_index, explanation, level, difficulty
		 FROM questions WHERE level = ? ORDER BY id`, level,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var choices string
		if err := rows.Scan(&q.Text, &choices, &q.CorrectIndex,
			&q.Explanation, &q.Level, &q.Difficulty); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCount returns the total number of stored questions.
func (d *DB) QuestionCount() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// ClearQuestions removes the entire question bank. Used before re-import.
func (d *DB) ClearQuestions() (int64, error) {
	result, err := d.db.Exec(`DELETE FROM questions`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
