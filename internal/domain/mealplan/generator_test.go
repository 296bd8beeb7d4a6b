package mealplan

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	gen := NewGenerator(Config{}, rand.New(rand.NewPCG(1, 2)))
	plan := gen.Generate(Preferences{})

	require.Len(t, plan.Days, 7)
	for i, day := range plan.Days {
		require.Equal(t, Days[i], day.Day)
		for _, slot := range Slots() {
			meal := day.Meal(slot)
			require.Contains(t, meal, " cooked in ")
			require.Contains(t, meal, ", with sautéed ")
			require.Contains(t, meal, " and a side of ")
			require.NotContains(t, meal, "favorite")
		}
	}
}

func TestGenerateVegetarianNeverUsesMeat(t *testing.T) {
	gen := NewGenerator(Config{}, rand.New(rand.NewPCG(7, 11)))
	for i := 0; i < 1000; i++ {
		plan := gen.Generate(Preferences{Vegetarian: true})
		for _, day := range plan.Days {
			for _, slot := range Slots() {
				meal := strings.ToLower(day.Meal(slot))
				require.NotContains(t, meal, "chicken")
				require.NotContains(t, meal, "fish")
				require.NotContains(t, meal, "eggs")
			}
		}
	}
}

func TestGenerateDislikedPoolFallsBackToPlaceholder(t *testing.T) {
	pools := DefaultPools()
	gen := NewGenerator(Config{}, rand.New(rand.NewPCG(3, 4)))
	plan := gen.Generate(Preferences{Dislikes: pools.Fat})

	for _, day := range plan.Days {
		for _, slot := range Slots() {
			meal := day.Meal(slot)
			require.Contains(t, meal, "cooked in "+DefaultPlaceholder+",")
			for _, fat := range pools.Fat {
				require.NotContains(t, meal, fat)
			}
		}
	}
}

func TestGenerateVegetarianWithDislikedProteinsUsesPlaceholder(t *testing.T) {
	gen := NewGenerator(Config{Placeholder: "nothing"}, rand.New(rand.NewPCG(5, 6)))
	plan := gen.Generate(Preferences{Vegetarian: true, Dislikes: []string{"TOFU", " paneer ", "tempeh"}})

	for _, day := range plan.Days {
		require.True(t, strings.HasPrefix(day.Breakfast, "Nothing cooked in "))
	}
}

func TestGenerateAnnotatesFavorites(t *testing.T) {
	pools := Pools{
		Protein:   []string{"eggs"},
		Vegetable: []string{"spinach"},
		Fat:       []string{"olive oil"},
		Other:     []string{"olives"},
	}
	gen := NewGenerator(Config{Pools: pools}, rand.New(rand.NewPCG(1, 1)))
	plan := gen.Generate(Preferences{Likes: []string{"Oliv", "olive", "spinach"}})

	want := "Eggs cooked in olive oil, with sautéed spinach and a side of olives (contains your favorite: spinach, olive oil, olives)"
	for _, day := range plan.Days {
		require.Equal(t, want, day.Breakfast)
		require.Equal(t, want, day.Dinner)
	}
}

func TestGenerateIsDeterministicWithSeed(t *testing.T) {
	a := NewGenerator(Config{}, rand.New(rand.NewPCG(42, 42))).Generate(Preferences{})
	b := NewGenerator(Config{}, rand.New(rand.NewPCG(42, 42))).Generate(Preferences{})
	require.Equal(t, a, b)
}

func TestGenerateDrawsEveryProtein(t *testing.T) {
	gen := NewGenerator(Config{}, rand.New(rand.NewPCG(9, 9)))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		for _, day := range gen.Generate(Preferences{}).Days {
			seen[strings.SplitN(day.Lunch, " cooked in ", 2)[0]] = true
		}
	}
	for _, protein := range DefaultPools().Protein {
		require.True(t, seen[capitalize(protein)], protein)
	}
}

func TestGenerateWithGlobalPicker(t *testing.T) {
	plan := NewGenerator(Config{}, nil).Generate(Preferences{})
	require.Len(t, plan.Days, 7)
}

func TestCSVRoundTrip(t *testing.T) {
	gen := NewGenerator(Config{}, rand.New(rand.NewPCG(8, 13)))
	plan := gen.Generate(Preferences{Likes: []string{"oil", "cheese"}})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, plan))
	require.True(t, strings.HasPrefix(buf.String(), "Day,Breakfast,Lunch,Dinner\n"))

	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, plan, parsed)
}

func TestReadCSVRejectsMalformedInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Day,Breakfast,Lunch,Supper\nMonday,a,b,c\n"))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Day,Breakfast,Lunch,Dinner\nMonday,a,b,c\n"))
	require.Error(t, err)
}

func TestPoolsIngredientsDeduplicates(t *testing.T) {
	pools := Pools{Protein: []string{"eggs"}, Other: []string{"eggs", "cheese"}}
	require.Equal(t, []string{"eggs", "cheese"}, pools.Ingredients())
}
