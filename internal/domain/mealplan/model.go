package mealplan

// Days are the rows of every generated plan.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Slot names one meal of the day.
type Slot string

const (
	Breakfast Slot = "Breakfast"
	Lunch     Slot = "Lunch"
	Dinner    Slot = "Dinner"
)

// Slots lists meal slots in serving order.
func Slots() []Slot {
	return []Slot{Breakfast, Lunch, Dinner}
}

// DayPlan holds the three meal descriptions of one day.
type DayPlan struct {
	Day       string `json:"day"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}

// Meal returns the description for slot.
func (d DayPlan) Meal(slot Slot) string {
	switch slot {
	case Breakfast:
		return d.Breakfast
	case Lunch:
		return d.Lunch
	case Dinner:
		return d.Dinner
	default:
		return ""
	}
}

func (d *DayPlan) setMeal(slot Slot, meal string) {
	switch slot {
	case Breakfast:
		d.Breakfast = meal
	case Lunch:
		d.Lunch = meal
	case Dinner:
		d.Dinner = meal
	}
}

// MealPlan is a week of meals.
type MealPlan struct {
	Days []DayPlan `json:"days"`
}

// Preferences drive ingredient selection.
type Preferences struct {
	Vegetarian bool     `json:"vegetarian"`
	Likes      []string `json:"likes"`
	Dislikes   []string `json:"dislikes"`
}

// Pools are the ingredient lists one item is drawn from per meal.
type Pools struct {
	Protein   []string `json:"protein"`
	Vegetable []string `json:"vegetable"`
	Fat       []string `json:"fat"`
	Other     []string `json:"other"`
}

// DefaultPools returns the built-in keto ingredient lists.
func DefaultPools() Pools {
	return Pools{
		Protein:   []string{"chicken", "fish", "eggs", "tofu", "paneer", "tempeh"},
		Vegetable: []string{"spinach", "broccoli", "zucchini", "cauliflower", "kale", "bell peppers"},
		Fat:       []string{"olive oil", "butter", "ghee", "coconut oil", "avocado oil"},
		Other:     []string{"almonds", "walnuts", "chia seeds", "cheese", "greek yogurt", "avocado"},
	}
}

// Ingredients lists every pool item once, in pool order.
func (p Pools) Ingredients() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(p.Protein)+len(p.Vegetable)+len(p.Fat)+len(p.Other))
	for _, pool := range [][]string{p.Protein, p.Vegetable, p.Fat, p.Other} {
		for _, item := range pool {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// NonVegetarian are removed from the protein pool for vegetarian plans.
var NonVegetarian = []string{"chicken", "fish", "eggs"}

// DefaultPlaceholder stands in for a category whose pool was filtered empty.
const DefaultPlaceholder = "chef's choice"
