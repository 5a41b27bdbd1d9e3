// Package quickadd turns one line of free text, like "coffee 4.50" or
// "groceries budget 600", into a row for the dashboard.
package quickadd

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

var ErrNoAmount = errors.New("no amount in entry")

//go:embed rules.yaml
var defaultRules []byte

type sectionRule struct {
	Section  budget.Section `yaml:"section"`
	Label    string         `yaml:"label"`
	Keywords []string       `yaml:"keywords"`
}

type Rules struct {
	Sections    []sectionRule `yaml:"sections"`
	IncomeHints []string      `yaml:"income_hints"`
	BudgetHints []string      `yaml:"budget_hints"`
	Stopwords   []string      `yaml:"stopwords"`
}

// ParseRules reads a rule table in the rules.yaml layout.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing quick-add rules: %w", err)
	}

	for i, sr := range r.Sections {
		sec, err := budget.ParseSection(string(sr.Section))
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		r.Sections[i].Section = sec
	}

	return &r, nil
}

// Entry is a classified line of text.
type Entry struct {
	Section budget.Section
	Name    string
	Amount  float64
	// Field is FieldActual or FieldBudget.
	Field budget.Field
}

// Row renders the entry as a line item.
func (e Entry) Row() budget.LineItem {
	li := budget.LineItem{Name: e.Name}
	_ = li.Set(e.Field, strconv.FormatFloat(e.Amount, 'f', -1, 64))

	return li
}

var amountPattern = regexp.MustCompile(`(?i)([-+])?\s*[$€£¥]?\s*(\d[\d,]*(?:\.\d+)?|\.\d+)\s*([km])?\b`)

// Classifier applies a rule table.
type Classifier struct {
	rules *Rules
}

func New(rules *Rules) *Classifier {
	return &Classifier{rules: rules}
}

// Default uses the embedded rule table.
func Default() *Classifier {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		panic(err)
	}

	return New(rules)
}

// Classify reads the first amount in text and picks a section and target field
// for it. Text without keywords lands in the variable section as an actual.
func (c *Classifier) Classify(text string) (Entry, error) {
	loc := amountPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return Entry{}, ErrNoAmount
	}

	amount := money.ParseAmount(text[loc[4]:loc[5]])
	if loc[6] >= 0 {
		switch strings.ToLower(text[loc[6]:loc[7]]) {
		case "k":
			amount *= 1_000
		case "m":
			amount *= 1_000_000
		}
	}

	if loc[2] >= 0 && text[loc[2]:loc[3]] == "-" {
		amount = -amount
	}

	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return Entry{}, ErrNoAmount
	}

	rest := strings.ToLower(text[:loc[0]] + " " + text[loc[1]:])

	entry := Entry{
		Section: budget.SectionVariable,
		Amount:  amount,
		Field:   budget.FieldActual,
	}

	label := ""

	for _, r := range c.rules.Sections {
		if containsAny(rest, r.Keywords) {
			entry.Section = r.Section
			label = r.Label

			break
		}
	}

	if containsAny(rest, c.rules.IncomeHints) {
		entry.Section = budget.SectionIncome
		label = "Income"
	}

	if containsAny(rest, c.rules.BudgetHints) {
		entry.Field = budget.FieldBudget
	}

	entry.Name = c.name(rest, label)

	return entry, nil
}

// name is what is left of the text once hints and filler words are removed.
func (c *Classifier) name(rest, fallback string) string {
	drop := make(map[string]bool)
	for _, list := range [][]string{c.rules.IncomeHints, c.rules.BudgetHints, c.rules.Stopwords} {
		for _, w := range list {
			if !strings.Contains(w, " ") {
				drop[w] = true
			}
		}
	}

	var words []string

	for _, w := range strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ':' || r == ';'
	}) {
		if !drop[w] {
			words = append(words, w)
		}
	}

	if len(words) == 0 {
		if fallback == "" {
			return "Quick add"
		}

		return fallback
	}

	return cases.Title(language.English).String(strings.Join(words, " "))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}

	return false
}

// Classify uses the embedded rule table.
func Classify(text string) (Entry, error) {
	return defaultClassifier.Classify(text)
}

var defaultClassifier = Default()
