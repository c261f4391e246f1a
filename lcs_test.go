package treedelta

import "testing"

func TestLCSBasic(t *testing.T) {
	a := []string{"a", "b", "c", "d"}
	b := []string{"a", "c", "d", "e"}
	pairs := LCS(a, b, func(x, y string) bool { return x == y })
	want := []Pair{{0, 0}, {2, 1}, {3, 2}}
	if len(pairs) != len(want) {
		t.Fatalf("LCS length = %d, want %d (%v)", len(pairs), len(want), pairs)
	}
	for i, p := range want {
		if pairs[i] != p {
			t.Errorf("pairs[%d] = %v, want %v", i, pairs[i], p)
		}
	}
}

func TestLCSEmptyInputs(t *testing.T) {
	if got := LCS([]int{}, []int{1, 2}, func(x, y int) bool { return x == y }); got != nil {
		t.Errorf("LCS with empty a = %v, want nil", got)
	}
	if got := LCS([]int{1, 2}, []int{}, func(x, y int) bool { return x == y }); got != nil {
		t.Errorf("LCS with empty b = %v, want nil", got)
	}
}

func TestSkelMatch(t *testing.T) {
	pairs := SkelMatch([]string{"li", "li", "li"}, []string{"li", "li"})
	if len(pairs) != 2 {
		t.Fatalf("SkelMatch length = %d, want 2", len(pairs))
	}
}

func TestLongestIncreasingByB(t *testing.T) {
	candidates := []childPair{{0, 2}, {1, 0}, {2, 1}, {3, 3}}
	lis := longestIncreasingByB(candidates)
	if len(lis) != 3 {
		t.Fatalf("LIS length = %d, want 3 (%v)", len(lis), lis)
	}
	for i := 1; i < len(lis); i++ {
		if candidates[lis[i]].bi <= candidates[lis[i-1]].bi {
			t.Errorf("LIS not strictly increasing in bi at %d", i)
		}
	}
}
