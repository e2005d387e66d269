package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/caretrack/internal/app/system/htmlsanitize"
)

func TestSanitize_PlainTextPassesThrough(t *testing.T) {
	in := "Give morning medication with breakfast"
	if got := htmlsanitize.Sanitize(in); got != in {
		t.Errorf("plain text changed: got %q", got)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("empty input: got %q", got)
	}
}

func TestSanitize_TrimsSurroundingWhitespace(t *testing.T) {
	got := htmlsanitize.Sanitize("  \n Check blood pressure \t ")
	if got != "Check blood pressure" {
		t.Errorf("got %q", got)
	}
}

func TestSanitize_StripsScripts(t *testing.T) {
	in := `Refill the pill organizer<script>alert("xss")</script> before Sunday`
	got := htmlsanitize.Sanitize(in)

	if strings.Contains(got, "<script") || strings.Contains(got, "alert") {
		t.Errorf("script content survived: %q", got)
	}
	if !strings.Contains(got, "Refill the pill organizer") {
		t.Errorf("surrounding text lost: %q", got)
	}
}

func TestSanitize_StripsEventHandlers(t *testing.T) {
	in := `<p onclick="steal()">Walk with the physical therapist</p>`
	got := htmlsanitize.Sanitize(in)

	if strings.Contains(got, "onclick") || strings.Contains(got, "steal") {
		t.Errorf("event handler survived: %q", got)
	}
	if !strings.Contains(got, "Walk with the physical therapist") {
		t.Errorf("text lost: %q", got)
	}
}

func TestSanitize_StripsJavascriptLinks(t *testing.T) {
	in := `<a href="javascript:doEvil()">appointment details</a>`
	got := htmlsanitize.Sanitize(in)

	if strings.Contains(got, "javascript") {
		t.Errorf("javascript: URL survived: %q", got)
	}
	if !strings.Contains(got, "appointment details") {
		t.Errorf("link text lost: %q", got)
	}
}

func TestSanitize_KeepsBasicFormatting(t *testing.T) {
	in := "<p>Evening routine:</p><ul><li><strong>Insulin</strong> at 6pm</li><li><em>Light</em> dinner</li></ul>"
	got := htmlsanitize.Sanitize(in)

	for _, tag := range []string{"<p>", "<ul>", "<li>", "<strong>", "<em>"} {
		if !strings.Contains(got, tag) {
			t.Errorf("formatting tag %s removed: %q", tag, got)
		}
	}
}

func TestSanitize_KeepsSafeLinks(t *testing.T) {
	in := `See <a href="https://example.org/care-plan">the care plan</a> for dosage`
	got := htmlsanitize.Sanitize(in)

	if !strings.Contains(got, `href="https://example.org/care-plan"`) {
		t.Errorf("safe link removed: %q", got)
	}
	if !strings.Contains(got, "the care plan") {
		t.Errorf("link text lost: %q", got)
	}
}

func TestSanitize_AllowsStyleOnTables(t *testing.T) {
	in := `<table style="width:100%"><tr><td style="text-align:left">Medication</td><td>Dose</td></tr></table>`
	got := htmlsanitize.Sanitize(in)

	if !strings.Contains(got, "width:100%") {
		t.Errorf("table style removed: %q", got)
	}
	if !strings.Contains(got, "text-align:left") {
		t.Errorf("cell style removed: %q", got)
	}
}

func TestSanitize_StripsStyleOffNonTableElements(t *testing.T) {
	in := `<p style="position:fixed">Schedule the follow-up visit</p>`
	got := htmlsanitize.Sanitize(in)

	if strings.Contains(got, "style=") {
		t.Errorf("style on paragraph survived: %q", got)
	}
	if !strings.Contains(got, "Schedule the follow-up visit") {
		t.Errorf("text lost: %q", got)
	}
}

func TestSanitize_CompletionNoteWithMixedContent(t *testing.T) {
	in := `Done at 8:15.<img src="x" onerror="alert(1)"> Pulse was <strong>72</strong>.`
	got := htmlsanitize.Sanitize(in)

	if strings.Contains(got, "onerror") {
		t.Errorf("onerror survived: %q", got)
	}
	if !strings.Contains(got, "Done at 8:15.") || !strings.Contains(got, "<strong>72</strong>") {
		t.Errorf("note content mangled: %q", got)
	}
}
