package transform

import (
	"strings"
	"testing"
	"time"
)

func testPipeline() Pipeline {
	return Pipeline{
		Roster:      map[string]string{"100": "200"},
		SourceRoles: map[string]string{"300": "admins", "310": "lurkers"},
		BackupRoles: map[string]string{"admins": "400"},
		TZOffset:    -5 * time.Hour,
	}
}

func TestTransformRewritesMentions(t *testing.T) {
	p := testPipeline()
	got := p.Transform("hi <@100> and <@!100>, ping <@555>", Options{})

	if !strings.Contains(got, "<@200>") {
		t.Errorf("rostered mention not rewritten: %q", got)
	}
	if strings.Contains(got, "<@100>") || strings.Contains(got, "<@!100>") {
		t.Errorf("source mention survived: %q", got)
	}
	if !strings.Contains(got, "<@555>") {
		t.Errorf("unrostered mention should pass through: %q", got)
	}
}

func TestTransformRewritesRoleMentions(t *testing.T) {
	p := testPipeline()
	got := p.Transform("<@&300> <@&310> <@&999>", Options{})

	if !strings.Contains(got, "<@&400>") {
		t.Errorf("mapped role not rewritten: %q", got)
	}
	// 310 resolves to a name with no backup role; 999 resolves to nothing.
	if !strings.Contains(got, "<@&310>") || !strings.Contains(got, "<@&999>") {
		t.Errorf("unmapped role mentions should pass through: %q", got)
	}
}

func TestNeuterBroadcasts(t *testing.T) {
	got := NeuterBroadcasts("@everyone hello @here")
	if strings.Contains(got, "@everyone") || strings.Contains(got, "@here") {
		t.Errorf("broadcast tags not neutered: %q", got)
	}
	if !strings.Contains(got, "@"+zwsp+"everyone") {
		t.Errorf("zero-width separator missing: %q", got)
	}
}

func TestTransformIdempotent(t *testing.T) {
	p := testPipeline()
	inputs := []string{
		"plain text",
		"hi <@100> @everyone <@&300>",
		"already neutered @" + zwsp + "everyone and swapped <@200>",
		"malformed <@> <@&abc> <@!>",
	}
	for _, raw := range inputs {
		once := p.Transform(raw, Options{})
		twice := p.Transform(once, Options{})
		if once != twice {
			t.Errorf("transform not idempotent for %q:\n once: %q\ntwice: %q", raw, once, twice)
		}
	}
}

func TestTransformBatchTimestamp(t *testing.T) {
	p := testPipeline()
	ts := time.Date(2022, 4, 20, 20, 4, 0, 0, time.UTC)
	got := p.Transform("hello", Options{BatchImport: true, Timestamp: ts})

	want := "[04/20/2022 03:04PM] hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTransformDefaultIdentityAttribution(t *testing.T) {
	p := testPipeline()
	got := p.Transform("hello", Options{ViaDefault: true, AuthorTag: "alice#1234"})
	if !strings.Contains(got, "(sent by alice#1234)") {
		t.Errorf("attribution missing: %q", got)
	}

	// A dedicated identity carries authorship itself; no suffix.
	got = p.Transform("hello", Options{ViaDefault: false, AuthorTag: "alice#1234"})
	if strings.Contains(got, "sent by") {
		t.Errorf("unexpected attribution: %q", got)
	}
}
