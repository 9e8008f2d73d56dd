package service

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":         "acme-corp",
		"  Acme   Corp  ":   "acme-corp",
		"ACME!!!Corp":       "acme-corp",
		"--acme--":          "acme",
		"acme":              "acme",
		"Crème Brûlée 2":    "creme-brulee-2",
		"foo_bar.baz":       "foo-bar-baz",
		"123 Industries":    "123-industries",
		"!!!":               "",
		"a":                 "a",
		"Über Co (EMEA)":    "uber-co-emea",
		"trailing-hyphen-!": "trailing-hyphen",
	}

	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Corp",
		"--weird -- input--",
		"ALL CAPS AND SPACES",
		"already-a-slug",
		"日本語テスト",
		"mixed 日本語 and ascii",
		"",
		"-",
		"a b c d e",
	}

	for _, input := range inputs {
		once := Slugify(input)
		twice := Slugify(once)
		if once != twice {
			t.Errorf("Slugify not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
