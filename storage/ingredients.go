package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"makefoods"
)

// IngredientStore persists the user's fridge contents.
type IngredientStore struct {
	db *gorm.DB
}

func NewIngredientStore(db *gorm.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

// ListAll returns all ingredients, most recently registered first.
func (s *IngredientStore) ListAll(ctx context.Context) ([]makefoods.Ingredient, error) {
	var models []ingredientModel
	err := s.db.WithContext(ctx).
		Order("registered_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return toIngredients(models), nil
}

// Snapshot returns all ingredients in no particular order.
func (s *IngredientStore) Snapshot(ctx context.Context) ([]makefoods.Ingredient, error) {
	var models []ingredientModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to snapshot ingredients: %w", err)
	}
	return toIngredients(models), nil
}

// GetByID returns the ingredient with id, or nil when there is none.
func (s *IngredientStore) GetByID(ctx context.Context, id int64) (*makefoods.Ingredient, error) {
	var m ingredientModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient %d: %w", id, err)
	}
	ing := toIngredient(m)
	return &ing, nil
}

// Insert stores ing with a fresh ID and returns the stored row.
func (s *IngredientStore) Insert(ctx context.Context, ing makefoods.Ingredient) (makefoods.Ingredient, error) {
	m := fromIngredient(ing)
	m.ID = 0
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return makefoods.Ingredient{}, fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
	}
	return toIngredient(m), nil
}

// InsertAll stores every ingredient in a single transaction.
func (s *IngredientStore) InsertAll(ctx context.Context, ings []makefoods.Ingredient) ([]makefoods.Ingredient, error) {
	if len(ings) == 0 {
		return []makefoods.Ingredient{}, nil
	}

	models := make([]ingredientModel, 0, len(ings))
	for _, ing := range ings {
		m := fromIngredient(ing)
		m.ID = 0
		models = append(models, m)
	}
	if err := s.db.WithContext(ctx).Create(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to insert %d ingredients: %w", len(ings), err)
	}
	return toIngredients(models), nil
}

// Update replaces the stored row with ing.ID. Updating a missing row is a no-op.
func (s *IngredientStore) Update(ctx context.Context, ing makefoods.Ingredient) error {
	m := fromIngredient(ing)
	err := s.db.WithContext(ctx).
		Model(&ingredientModel{}).
		Where("id = ?", ing.ID).
		Updates(map[string]any{
			"name":          m.Name,
			"quantity":      m.Quantity,
			"registered_at": m.RegisteredAt,
			"expires_at":    m.ExpiresAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update ingredient %d: %w", ing.ID, err)
	}
	return nil
}

func (s *IngredientStore) Delete(ctx context.Context, ing makefoods.Ingredient) error {
	return s.DeleteByID(ctx, ing.ID)
}

// DeleteByID removes the row with id. Missing rows are ignored.
func (s *IngredientStore) DeleteByID(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&ingredientModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete ingredient %d: %w", id, err)
	}
	return nil
}

func (s *IngredientStore) DeleteBatch(ctx context.Context, ings []makefoods.Ingredient) error {
	if len(ings) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(ings))
	for _, ing := range ings {
		ids = append(ids, ing.ID)
	}
	if err := s.db.WithContext(ctx).Delete(&ingredientModel{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete %d ingredients: %w", len(ids), err)
	}
	return nil
}

func (s *IngredientStore) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&ingredientModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	return nil
}
