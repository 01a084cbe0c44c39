package dice

// Roller provides an interface for rolling dice
// This allows us to inject different implementations for testing
type Roller interface {
	// Roll rolls a number of dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)

	// RollExpression evaluates a dice expression like "2d6+3", substituting
	// @name variables from vars
	RollExpression(expr string, vars map[string]int) (*RollResult, error)
}
