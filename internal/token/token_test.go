package token

import "testing"

func TestTokensForDraws(t *testing.T) {
	tok := Token{Name: "Poke Coins", PerDraw: 160, PerTenDraw: 1500}
	cases := map[int]int{-1: 0, 0: 0, 1: 160, 9: 1440, 10: 1500, 11: 1660, 25: 3800}
	for n, want := range cases {
		if got := tok.TokensForDraws(n); got != want {
			t.Fatalf("TokensForDraws(%d)=%d, want %d", n, got, want)
		}
	}
	plain := Token{PerDraw: 100}
	if got := plain.TokensForDraws(10); got != 1000 {
		t.Fatalf("without ten-pull price: %d", got)
	}
}
