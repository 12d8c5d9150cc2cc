package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"github.com/google/uuid"
)

// ErrRuleNotFound is returned when no rule has the requested id
var ErrRuleNotFound = errors.New("category rule not found")

type CategoryRuleRepository struct {
	db *sql.DB
}

func NewCategoryRuleRepository(db *sql.DB) *CategoryRuleRepository {
	return &CategoryRuleRepository{db: db}
}

func (r *CategoryRuleRepository) Create(ctx context.Context, req *models.CreateCategoryRuleRequest) (*models.CategoryRule, error) {
	if err := validateRule(req.Name, req.Regex); err != nil {
		return nil, err
	}

	name, err := json.Marshal(req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category name: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	if req.Position != nil {
		position = *req.Position
		if _, err := tx.ExecContext(ctx, `UPDATE category_rules SET position = position + 1 WHERE position >= ?`, position); err != nil {
			return nil, fmt.Errorf("failed to shift rule positions: %w", err)
		}
	} else {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM category_rules`).Scan(&position); err != nil {
			return nil, fmt.Errorf("failed to compute rule position: %w", err)
		}
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO category_rules (id, name, regex, color, score, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, string(name), req.Regex, nullString(req.Color), req.Score, position)
	if err != nil {
		return nil, fmt.Errorf("failed to create category rule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.CategoryRule{
		ID:    id,
		Name:  req.Name,
		Regex: req.Regex,
		Color: req.Color,
		Score: req.Score,
	}, nil
}

func (r *CategoryRuleRepository) GetByID(ctx context.Context, id string) (*models.CategoryRule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, regex, color, score
		FROM category_rules
		WHERE id = ?
	`, id)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category rule: %w", err)
	}
	return rule, nil
}

// List returns every rule in rule-set order
func (r *CategoryRuleRepository) List(ctx context.Context) ([]models.CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, regex, color, score
		FROM category_rules
		ORDER BY position ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category rules: %w", err)
	}
	defer rows.Close()

	rules := []models.CategoryRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rules, nil
}

// LoadRules lets the repository serve as a category rule source
func (r *CategoryRuleRepository) LoadRules(ctx context.Context) ([]models.CategoryRule, error) {
	return r.List(ctx)
}

func (r *CategoryRuleRepository) Update(ctx context.Context, id string, update *models.UpdateCategoryRuleRequest) (*models.CategoryRule, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setParts := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}

	name := current.Name
	regex := current.Regex
	if len(update.Name) > 0 {
		name = update.Name
		encoded, err := json.Marshal(update.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode category name: %w", err)
		}
		setParts = append(setParts, "name = ?")
		args = append(args, string(encoded))
	}
	if update.Regex != nil {
		regex = *update.Regex
		setParts = append(setParts, "regex = ?")
		args = append(args, *update.Regex)
	}
	if err := validateRule(name, regex); err != nil {
		return nil, err
	}
	if update.Color != nil {
		setParts = append(setParts, "color = ?")
		args = append(args, nullString(*update.Color))
	}
	if update.Score != nil {
		setParts = append(setParts, "score = ?")
		args = append(args, *update.Score)
	}
	if update.Position != nil {
		setParts = append(setParts, "position = ?")
		args = append(args, *update.Position)
	}

	if len(setParts) == 1 {
		return current, nil
	}

	query := fmt.Sprintf(`
		UPDATE category_rules
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update category rule: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *CategoryRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM category_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(s scanner) (*models.CategoryRule, error) {
	var (
		rule  models.CategoryRule
		name  string
		color sql.NullString
		score sql.NullInt64
	)
	if err := s.Scan(&rule.ID, &name, &rule.Regex, &color, &score); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(name), &rule.Name); err != nil {
		return nil, fmt.Errorf("corrupt category name for rule %s: %w", rule.ID, err)
	}
	rule.Color = color.String
	if score.Valid {
		v := int(score.Int64)
		rule.Score = &v
	}
	return &rule, nil
}

func validateRule(name []string, regex string) error {
	if len(name) == 0 {
		return &models.ValidationError{Field: "name", Message: "category path must not be empty"}
	}
	for _, part := range name {
		if strings.TrimSpace(part) == "" {
			return &models.ValidationError{Field: "name", Message: "category path elements must not be blank"}
		}
	}
	if strings.TrimSpace(regex) == "" {
		return &models.ValidationError{Field: "regex", Message: "must not be empty"}
	}
	// rules are matched case-insensitively
	if _, err := regexp.Compile("(?i)" + regex); err != nil {
		return &models.ValidationError{Field: "regex", Message: err.Error()}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
