package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makefoods"
)

const insertBatchSize = 500

// RecipeStore is the read side of the imported recipe dataset.
type RecipeStore struct {
	db *gorm.DB
}

func NewRecipeStore(db *gorm.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// FindByIngredient returns recipes whose ingredient text contains text
// (case-sensitive), ordered by ID. Blank text matches nothing.
func (s *RecipeStore) FindByIngredient(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	return s.findContaining(ctx, "ingredients", text)
}

// FindByName returns recipes whose name contains text (case-sensitive),
// ordered by ID. Blank text matches nothing.
func (s *RecipeStore) FindByName(ctx context.Context, text string) ([]makefoods.Recipe, error) {
	return s.findContaining(ctx, "name", text)
}

// instr keeps the match case-sensitive, unlike LIKE.
func (s *RecipeStore) findContaining(ctx context.Context, column, text string) ([]makefoods.Recipe, error) {
	if strings.TrimSpace(text) == "" {
		return []makefoods.Recipe{}, nil
	}

	var models []recipeModel
	err := s.db.WithContext(ctx).
		Where(fmt.Sprintf("instr(%s, ?) > 0", column), text).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes by %s: %w", column, err)
	}
	return toRecipes(models), nil
}

// GetByID returns the recipe with id, or nil when there is none.
func (s *RecipeStore) GetByID(ctx context.Context, id int64) (*makefoods.Recipe, error) {
	var m recipeModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	r := toRecipe(m)
	return &r, nil
}

func (s *RecipeStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&recipeModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// InsertAll stores recipes in batches. Rows whose ID already exists are skipped.
func (s *RecipeStore) InsertAll(ctx context.Context, recipes []makefoods.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	models := make([]recipeModel, 0, len(recipes))
	for _, r := range recipes {
		models = append(models, fromRecipe(r))
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(models, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to insert recipes: %w", err)
	}
	return nil
}
