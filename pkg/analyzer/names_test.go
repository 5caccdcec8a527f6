package analyzer

import (
	"reflect"
	"testing"
)

func testResolver() *Resolver {
	return NewResolver(ResolverConfig{
		Players: []string{
			"Shai Gilgeous-Alexander",
			"Pascal Siakam",
			"De'Aaron Fox",
		},
		Aliases: map[string]string{
			"sga": "Shai Gilgeous-Alexander",
		},
	})
}

func TestResolveKnownPlayers(t *testing.T) {
	r := testResolver()

	got := r.Resolve("Any Pascal Siakam or De'Aaron Fox Moment")
	expect := []string{"Pascal Siakam", "De'Aaron Fox"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("unexpected candidates.\nwant: %#v\ngot:  %#v", expect, got)
	}
}

func TestResolveAliasToken(t *testing.T) {
	r := testResolver()

	got := r.Resolve("Any SGA playoff moment")
	expect := []string{"Shai Gilgeous-Alexander"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("alias resolution failed.\nwant: %#v\ngot:  %#v", expect, got)
	}
}

func TestResolveAliasDoesNotDuplicate(t *testing.T) {
	r := testResolver()

	got := r.Resolve("Shai Gilgeous-Alexander (SGA) dunk")
	expect := []string{"Shai Gilgeous-Alexander"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected deduplicated candidates.\nwant: %#v\ngot:  %#v", expect, got)
	}
}

func TestResolveFallbackFirstToken(t *testing.T) {
	r := testResolver()

	got := r.Resolve("Jokic triple double moment")
	expect := []string{"Jokic"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("fallback token failed.\nwant: %#v\ngot:  %#v", expect, got)
	}
}

func TestResolveDegenerateInput(t *testing.T) {
	r := testResolver()

	if got := r.Resolve(""); len(got) != 0 {
		t.Fatalf("empty input should yield no candidates, got %#v", got)
	}
	// First token too short to be a plausible name.
	if got := r.Resolve("a b"); len(got) != 0 {
		t.Fatalf("short tokens should yield no candidates, got %#v", got)
	}
}
