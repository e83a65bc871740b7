package storage

import (
	"time"

	"makefoods"
)

type recipeModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Name         string `gorm:"not null;index"`
	Ingredients  string `gorm:"not null"`
	CookingSteps string
	CookingTime  string
	Difficulty   string
	ImageURL     string
	Description  string
}

func (recipeModel) TableName() string { return "recipes" }

type ingredientModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"not null"`
	Quantity     int    `gorm:"not null"`
	RegisteredAt int64  `gorm:"not null;index"` // unix millis
	ExpiresAt    int64  `gorm:"not null"`       // unix millis
}

func (ingredientModel) TableName() string { return "ingredients" }

func toRecipe(m recipeModel) makefoods.Recipe {
	return makefoods.Recipe{
		ID:           m.ID,
		Name:         m.Name,
		Ingredients:  m.Ingredients,
		CookingSteps: m.CookingSteps,
		CookingTime:  m.CookingTime,
		Difficulty:   m.Difficulty,
		ImageURL:     m.ImageURL,
		Description:  m.Description,
	}
}

func fromRecipe(r makefoods.Recipe) recipeModel {
	return recipeModel{
		ID:           r.ID,
		Name:         r.Name,
		Ingredients:  r.Ingredients,
		CookingSteps: r.CookingSteps,
		CookingTime:  r.CookingTime,
		Difficulty:   r.Difficulty,
		ImageURL:     r.ImageURL,
		Description:  r.Description,
	}
}

func toRecipes(ms []recipeModel) []makefoods.Recipe {
	out := make([]makefoods.Recipe, 0, len(ms))
	for _, m := range ms {
		out = append(out, toRecipe(m))
	}
	return out
}

func toIngredient(m ingredientModel) makefoods.Ingredient {
	return makefoods.Ingredient{
		ID:           m.ID,
		Name:         m.Name,
		Quantity:     m.Quantity,
		RegisteredAt: time.UnixMilli(m.RegisteredAt),
		ExpiresAt:    time.UnixMilli(m.ExpiresAt),
	}
}

func fromIngredient(i makefoods.Ingredient) ingredientModel {
	return ingredientModel{
		ID:           i.ID,
		Name:         i.Name,
		Quantity:     i.Quantity,
		RegisteredAt: i.RegisteredAt.UnixMilli(),
		ExpiresAt:    i.ExpiresAt.UnixMilli(),
	}
}

func toIngredients(ms []ingredientModel) []makefoods.Ingredient {
	out := make([]makefoods.Ingredient, 0, len(ms))
	for _, m := range ms {
		out = append(out, toIngredient(m))
	}
	return out
}
