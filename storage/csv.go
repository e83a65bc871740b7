package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"makefoods"
)

// Field positions in the public recipe dataset export.
const (
	colID           = 0
	colName         = 1
	colDescription  = 12
	colIngredients  = 13
	colDifficulty   = 15
	colCookingTime  = 16
	colImageURL     = 18
	colCookingSteps = 19

	minFields = 20
)

// ParseRecipes reads the recipe CSV export. The header row is skipped.
// Malformed rows are logged and skipped; skipped reports how many.
func ParseRecipes(r io.Reader) (recipes []makefoods.Recipe, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			slog.Warn("STORAGE: skipping malformed csv row", "line", parseErr.Line, "error", parseErr.Err)
			skipped++
			header = false
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to read recipe csv: %w", err)
		}
		if header {
			header = false
			continue
		}

		line, _ := reader.FieldPos(0)
		recipe, reason := recipeFromRecord(record)
		if reason != "" {
			slog.Warn("STORAGE: skipping recipe row", "line", line, "reason", reason)
			skipped++
			continue
		}
		recipes = append(recipes, recipe)
	}

	return recipes, skipped, nil
}

func recipeFromRecord(record []string) (makefoods.Recipe, string) {
	if len(record) < minFields {
		return makefoods.Recipe{}, fmt.Sprintf("too few fields (%d/%d)", len(record), minFields)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(record[colID]), 10, 64)
	if err != nil {
		return makefoods.Recipe{}, fmt.Sprintf("invalid recipe id %q", record[colID])
	}

	name := strings.TrimSpace(record[colName])
	if name == "" {
		return makefoods.Recipe{}, "blank recipe name"
	}

	return makefoods.Recipe{
		ID:           id,
		Name:         name,
		Ingredients:  strings.TrimSpace(record[colIngredients]),
		CookingSteps: strings.TrimSpace(record[colCookingSteps]),
		CookingTime:  strings.TrimSpace(record[colCookingTime]),
		Difficulty:   strings.TrimSpace(record[colDifficulty]),
		ImageURL:     strings.TrimSpace(record[colImageURL]),
		Description:  strings.TrimSpace(record[colDescription]),
	}, ""
}
