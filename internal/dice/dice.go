package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// RollResult holds the outcome of a dice roll with its breakdown for display
type RollResult struct {
	Total    int
	Rolls    []int
	Bonus    int
	Count    int
	Sides    int
	RawTotal int
}

// Roll rolls count dice with the given number of sides and adds a bonus
func Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, errors.New("invalid dice count")
	}

	if sides < 1 {
		return nil, errors.New("invalid dice size")
	}

	total := 0
	out := make([]int, count)
	for i := 0; i < count; i++ {
		roll := rand.Intn(sides) + 1
		total += roll
		out[i] = roll
	}

	return &RollResult{
		Total:    total + bonus,
		Rolls:    out,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: total,
	}, nil
}

// Expression is a parsed dice expression: at most one dice term plus a flat bonus
type Expression struct {
	Count int
	Sides int
	Bonus int
}

// Parse parses a dice expression like "2d6+3", "1d8-1" or "5", substituting
// @name variables from vars before parsing. At most one dice term is allowed;
// remaining terms must resolve to integers and are folded into the bonus.
func Parse(expr string, vars map[string]int) (*Expression, error) {
	substituted, err := substitute(expr, vars)
	if err != nil {
		return nil, err
	}

	parsed := &Expression{}
	haveDice := false

	for _, term := range splitTerms(substituted) {
		body := strings.TrimSpace(term.text)
		if body == "" {
			return nil, fmt.Errorf("invalid dice expression %q", expr)
		}

		if strings.Contains(body, "d") {
			if haveDice {
				return nil, fmt.Errorf("expression %q has more than one dice term", expr)
			}
			if term.negative {
				return nil, fmt.Errorf("expression %q subtracts a dice term", expr)
			}
			count, sides, diceErr := parseDiceTerm(body)
			if diceErr != nil {
				return nil, diceErr
			}
			parsed.Count = count
			parsed.Sides = sides
			haveDice = true
			continue
		}

		value, convErr := strconv.Atoi(body)
		if convErr != nil {
			return nil, fmt.Errorf("invalid term %q in dice expression %q", body, expr)
		}
		if term.negative {
			value = -value
		}
		parsed.Bonus += value
	}

	return parsed, nil
}

// String renders the expression back in NdS+K form
func (e *Expression) String() string {
	if e.Count == 0 {
		return strconv.Itoa(e.Bonus)
	}
	if e.Bonus == 0 {
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
	if e.Bonus < 0 {
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Bonus)
	}
	return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Bonus)
}

type term struct {
	text     string
	negative bool
}

func splitTerms(expr string) []term {
	var terms []term
	current := strings.Builder{}
	negative := false

	flush := func(nextNegative bool) {
		if current.Len() > 0 {
			terms = append(terms, term{text: current.String(), negative: negative})
			current.Reset()
		}
		negative = nextNegative
	}

	for _, r := range expr {
		switch r {
		case '+':
			flush(false)
		case '-':
			flush(true)
		default:
			current.WriteRune(r)
		}
	}
	flush(false)

	return terms
}

func parseDiceTerm(body string) (count, sides int, err error) {
	parts := strings.SplitN(body, "d", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid dice term %q", body)
	}

	count = 1
	if parts[0] != "" {
		count, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid dice count in %q", body)
		}
	}

	sides, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dice size in %q", body)
	}

	return count, sides, nil
}

// substitute replaces @name references with values from vars. Names are
// alphanumeric; an unknown name is an error rather than a silent zero.
func substitute(expr string, vars map[string]int) (string, error) {
	if !strings.Contains(expr, "@") {
		return expr, nil
	}

	out := strings.Builder{}
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '@' {
			out.WriteRune(runes[i])
			continue
		}

		j := i + 1
		for j < len(runes) && isNameRune(runes[j]) {
			j++
		}
		name := string(runes[i+1 : j])
		if name == "" {
			return "", fmt.Errorf("dangling @ in dice expression %q", expr)
		}

		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("unknown variable @%s in dice expression %q", name, expr)
		}
		out.WriteString(strconv.Itoa(value))
		i = j - 1
	}

	return out.String(), nil
}

func isNameRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
