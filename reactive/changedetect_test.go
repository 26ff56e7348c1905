package reactive

import "testing"

func TestDefaultEqual_StructuralComparison(t *testing.T) {
	cases := []struct {
		name     string
		old, new any
		want     bool
	}{
		{"equal ints", 3, 3, true},
		{"different ints", 3, 4, false},
		{"equal slices", []int{1, 2}, []int{1, 2}, true},
		{"different slices", []int{1, 2}, []int{1, 3}, false},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
		{"equal structs", struct{ X int }{1}, struct{ X int }{1}, true},
	}
	for _, c := range cases {
		if got := DefaultEqual(c.old, c.new); got != c.want {
			t.Errorf("%s: DefaultEqual(%v, %v) = %v, want %v", c.name, c.old, c.new, got, c.want)
		}
	}
}

func TestEqualOrDefault_NilFallsBackToDefaultEqual(t *testing.T) {
	eq := equalOrDefault(nil)
	if !eq(5, 5) {
		t.Error("equalOrDefault(nil)(5, 5) = false, want true")
	}
	if eq(5, 6) {
		t.Error("equalOrDefault(nil)(5, 6) = true, want false")
	}
}

func TestEqualOrDefault_PassesThroughCustomComparator(t *testing.T) {
	alwaysEqual := func(old, new any) bool { return true }
	eq := equalOrDefault(alwaysEqual)
	if !eq(1, 2) {
		t.Error("equalOrDefault did not pass through the custom comparator")
	}
}
