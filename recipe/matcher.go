package recipe

import (
	"context"
	"fmt"
	"strings"

	"makefoods"
)

type recipeFinder interface {
	FindByIngredient(ctx context.Context, text string) ([]makefoods.Recipe, error)
	FindByName(ctx context.Context, text string) ([]makefoods.Recipe, error)
}

// Matcher resolves ingredient and dish names to stored recipes.
// Matching is a plain case-sensitive substring search with no ranking.
type Matcher struct {
	finder recipeFinder
}

func NewMatcher(finder recipeFinder) *Matcher {
	return &Matcher{finder: finder}
}

// MatchByIngredients returns every recipe that uses any of names, in
// first-seen order, with no recipe ID repeated.
func (m *Matcher) MatchByIngredients(ctx context.Context, names []string) ([]makefoods.Recipe, error) {
	out := []makefoods.Recipe{}
	seen := make(map[int64]struct{})

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		found, err := m.finder.FindByIngredient(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("match ingredient %q: %w", name, err)
		}
		for _, r := range found {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}

	return out, nil
}

func (m *Matcher) MatchByName(ctx context.Context, name string) ([]makefoods.Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []makefoods.Recipe{}, nil
	}

	found, err := m.finder.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("match recipe name %q: %w", name, err)
	}
	return found, nil
}

// MatchByNames concatenates MatchByName for each name. A recipe matched by
// two different names appears twice.
func (m *Matcher) MatchByNames(ctx context.Context, names []string) ([]makefoods.Recipe, error) {
	out := []makefoods.Recipe{}
	for _, name := range names {
		found, err := m.MatchByName(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
