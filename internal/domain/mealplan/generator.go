package mealplan

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Picker returns a uniform int in [0, n).
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

// IntN uses the process-wide generator, which is safe for concurrent use.
func (globalPicker) IntN(n int) int {
	return rand.IntN(n)
}

// Config tunes the generator.
type Config struct {
	Pools       Pools
	Placeholder string
}

// Generator draws weekly plans from the configured pools.
type Generator struct {
	pools       Pools
	placeholder string
	picker      Picker
}

// NewGenerator builds a generator. A nil picker uses the unseeded global source.
func NewGenerator(cfg Config, picker Picker) *Generator {
	pools := cfg.Pools
	if len(pools.Protein)+len(pools.Vegetable)+len(pools.Fat)+len(pools.Other) == 0 {
		pools = DefaultPools()
	}
	placeholder := strings.TrimSpace(cfg.Placeholder)
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if picker == nil {
		picker = globalPicker{}
	}
	return &Generator{pools: pools, placeholder: placeholder, picker: picker}
}

// Pools exposes the ingredient lists, e.g. for building like/dislike choices.
func (g *Generator) Pools() Pools {
	return g.pools
}

// Generate builds a fresh 7 day plan. It never fails: empty pools fall back to the placeholder.
func (g *Generator) Generate(prefs Preferences) MealPlan {
	protein := g.pools.Protein
	if prefs.Vegetarian {
		protein = without(protein, NonVegetarian)
	}
	dislikes := normalizeSet(prefs.Dislikes)
	likes := normalizeSet(prefs.Likes)

	plan := MealPlan{Days: make([]DayPlan, 0, len(Days))}
	for _, day := range Days {
		dp := DayPlan{Day: day}
		for _, slot := range Slots() {
			dp.setMeal(slot, g.meal(protein, dislikes, likes))
		}
		plan.Days = append(plan.Days, dp)
	}
	return plan
}

func (g *Generator) meal(protein, dislikes, likes []string) string {
	p := g.pick(without(protein, dislikes))
	v := g.pick(without(g.pools.Vegetable, dislikes))
	f := g.pick(without(g.pools.Fat, dislikes))
	o := g.pick(without(g.pools.Other, dislikes))

	meal := fmt.Sprintf("%s cooked in %s, with sautéed %s and a side of %s", capitalize(p), f, v, o)
	if favorites := matchLikes([]string{p, v, f, o}, likes); len(favorites) > 0 {
		meal += " (contains your favorite: " + strings.Join(favorites, ", ") + ")"
	}
	return meal
}

func (g *Generator) pick(pool []string) string {
	if len(pool) == 0 {
		return g.placeholder
	}
	return pool[g.picker.IntN(len(pool))]
}

// matchLikes returns chosen ingredients containing any liked substring, first occurrence order.
func matchLikes(chosen, likes []string) []string {
	if len(likes) == 0 {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, item := range chosen {
		lower := strings.ToLower(item)
		for _, like := range likes {
			if !strings.Contains(lower, like) {
				continue
			}
			if _, ok := seen[item]; !ok {
				seen[item] = struct{}{}
				out = append(out, item)
			}
			break
		}
	}
	return out
}

func without(pool, excluded []string) []string {
	if len(excluded) == 0 {
		return pool
	}
	out := make([]string, 0, len(pool))
	for _, item := range pool {
		if containsFold(excluded, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func containsFold(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}

func normalizeSet(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.ToLower(strings.TrimSpace(item))
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
