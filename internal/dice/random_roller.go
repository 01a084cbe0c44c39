package dice

// randomRoller implements Roller with math/rand
type randomRoller struct{}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	return Roll(count, sides, bonus)
}

// RollExpression implements Roller.RollExpression
func (r *randomRoller) RollExpression(expr string, vars map[string]int) (*RollResult, error) {
	parsed, err := Parse(expr, vars)
	if err != nil {
		return nil, err
	}

	// Flat expression with no dice term
	if parsed.Count == 0 {
		return &RollResult{
			Total:    parsed.Bonus,
			Bonus:    parsed.Bonus,
			RawTotal: 0,
		}, nil
	}

	return Roll(parsed.Count, parsed.Sides, parsed.Bonus)
}
