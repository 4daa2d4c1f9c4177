package token

// Token defines how much currency a pull costs.
type Token struct {
	Name       string // e.g. "Poke Coins"
	PerDraw    int    // cost of a single pull
	PerTenDraw int    // optional; if 0 -> equal to 10 * PerDraw
}

// TokensForDraws returns the cost of n pulls; every full ten uses the
// ten-pull price.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		rem := n % 10
		return tens*t.PerTenDraw + rem*t.PerDraw
	}
	return n * t.PerDraw
}
