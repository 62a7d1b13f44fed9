package directory

import "testing"

func TestCanMutate(t *testing.T) {
	cases := []struct {
		name  string
		tag   Tag
		rank  int
		allow bool
	}{
		{"above rank", Tag{Rank: 3}, 5, true},
		{"equal rank", Tag{Rank: 5}, 5, false},
		{"below rank", Tag{Rank: 7}, 5, false},
		{"externally managed", Tag{Rank: 0, Managed: true}, 10, false},
	}
	for _, tc := range cases {
		if got := CanMutate(tc.tag, tc.rank); got != tc.allow {
			t.Errorf("%s: CanMutate = %v, want %v", tc.name, got, tc.allow)
		}
	}
}
