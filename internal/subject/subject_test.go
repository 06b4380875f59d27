package subject

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAccepts(t *testing.T) {
	cases := map[string]string{
		"octocat":                                  "octocat",
		"  octocat  ":                              "octocat",
		"a":                                        "a",
		"my-org":                                   "my-org",
		"octocat/hello-world":                      "octocat/hello-world",
		"https://github.com/octocat/Hello-World":   "octocat/Hello-World",
		"https://github.com/octocat/hello.git":     "octocat/hello",
		"http://www.github.com/octocat/x/tree/main": "octocat/x",
		"https://github.com/octocat/":              "octocat",
		strings.Repeat("a", 39):                    strings.Repeat("a", 39),
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("Parse(%q): want=%q got=%q", in, want, got.String())
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"-octocat",
		"octocat-",
		"octo--cat",
		"octo_cat",
		strings.Repeat("a", 40),
		"a/b/c",
		"octocat/",
		"ftp://github.com/octocat",
		"https://gitlab.com/octocat/x",
		"https://github.com/",
	} {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): want ErrInvalid got=%v", in, err)
		}
	}
}

func TestIsPair(t *testing.T) {
	s, err := Parse("octocat/hello")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.IsPair() || s.Owner != "octocat" || s.Name != "hello" {
		t.Fatalf("unexpected subject: %+v", s)
	}
}
