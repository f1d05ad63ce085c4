package ledger

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultCategory is assigned when no keyword rule matches a title.
const DefaultCategory = "General Products"

// CategoryRule maps one category name to the title keywords that select it.
// Rules are checked in order and the first hit wins, so broader categories
// belong later in the table.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// defaultRules is the built-in category table. A YAML file can replace it
// wholesale via LoadCategories.
var defaultRules = []CategoryRule{
	{"Food & Beverages", []string{"food", "snack", "beverage", "drink", "juice", "tea", "coffee", "biscuit", "chocolate", "cereal", "flakes", "oil", "ghee", "atta", "rice", "masala", "spice"}},
	{"Pharmaceuticals", []string{"tablet", "capsule", "syrup", "medicine", "pharma", "ointment", "vitamin", "supplement"}},
	{"Cosmetics & Personal Care", []string{"cream", "lotion", "shampoo", "soap", "cosmetic", "perfume", "deodorant", "toothpaste", "skincare"}},
	{"Electronics", []string{"phone", "laptop", "charger", "battery", "headphone", "speaker", "camera", "television", "electronic"}},
	{"Textiles & Clothing", []string{"shirt", "trouser", "saree", "kurta", "jeans", "fabric", "cotton", "garment", "apparel"}},
	{"Home & Kitchen", []string{"cookware", "utensil", "furniture", "bedsheet", "curtain", "kitchen", "storage", "cleaner", "detergent"}},
	{"Automotive", []string{"engine", "tyre", "tire", "lubricant", "automotive", "helmet"}},
	{"Books & Stationery", []string{"book", "notebook", "pen", "pencil", "stationery", "diary"}},
	{"Sports & Fitness", []string{"fitness", "yoga", "dumbbell", "cricket", "football", "sports", "gym"}},
	{"Toys & Games", []string{"toy", "game", "puzzle", "doll", "board game"}},
}

// Categories classifies product titles by ordered keyword lookup.
type Categories struct {
	rules []CategoryRule
}

// NewCategories builds a classifier over the given rules, or the built-in
// table when rules is empty.
func NewCategories(rules []CategoryRule) *Categories {
	if len(rules) == 0 {
		rules = defaultRules
	}
	return &Categories{rules: rules}
}

// LoadCategories reads an ordered YAML rule list (name + keywords per
// entry) and returns a classifier over it.
func LoadCategories(path string) (*Categories, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: read category table")
	}
	var rules []CategoryRule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, eris.Wrap(err, "ledger: parse category table")
	}
	if len(rules) == 0 {
		return nil, eris.Errorf("ledger: category table %s is empty", path)
	}
	return NewCategories(rules), nil
}

// Classify returns the first category whose keyword appears in the
// lowercased title, or DefaultCategory.
func (c *Categories) Classify(title string) string {
	title = strings.ToLower(title)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(title, kw) {
				return rule.Name
			}
		}
	}
	return DefaultCategory
}
