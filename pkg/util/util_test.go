package util

import "testing"

func TestFilter_LeavesInputUntouched(t *testing.T) {
	input := []int{1, 2, 3, 4}

	even := Filter(input, func(i int) bool { return i%2 == 0 })

	if len(even) != 2 || even[0] != 2 || even[1] != 4 {
		t.Fatalf("Filter()=%v", even)
	}
	if input[0] != 1 || len(input) != 4 {
		t.Fatalf("input modified: %v", input)
	}
}

func TestFilter_NoMatchesIsEmptyNotNil(t *testing.T) {
	if got := Filter([]string{"a"}, func(string) bool { return false }); got == nil || len(got) != 0 {
		t.Fatalf("Filter()=%#v, want empty slice", got)
	}
}

func TestGetEnvironmentVariables(t *testing.T) {
	t.Setenv("LIVETREINEN_TEST_VALUE", "a=b")

	if got := GetEnvironmentVariables()["LIVETREINEN_TEST_VALUE"]; got != "a=b" {
		t.Fatalf("value=%q, want a=b", got)
	}
}

func TestIsEnabled(t *testing.T) {
	for value, want := range map[string]bool{"YES": true, "true": true, "1": true, " on ": true, "NO": false, "": false, "maybe": false} {
		if got := IsEnabled(value); got != want {
			t.Errorf("IsEnabled(%q)=%v, want %v", value, got, want)
		}
	}
}
