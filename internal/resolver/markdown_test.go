package resolver

import (
	"strings"
	"testing"
)

func TestFlattenHTML(t *testing.T) {
	src := `<html><head><title>ignored</title><style>body{color:red}</style></head>
	<body>
	<script>trackPageView()</script>
	<h1>Riverside Tower</h1>
	<p>Starting at <b>$500,000</b>.</p>
	<ul><li>Pool</li><li>Gym</li></ul>
	<noscript>enable javascript</noscript>
	</body></html>`

	got := flattenHTML(src)

	if !strings.Contains(got, "# Riverside Tower") {
		t.Errorf("h1 should become a heading marker, got:\n%s", got)
	}
	if !strings.Contains(got, "$500,000") {
		t.Errorf("body text missing, got:\n%s", got)
	}
	if !strings.Contains(got, "Pool") || !strings.Contains(got, "Gym") {
		t.Errorf("list items missing, got:\n%s", got)
	}
	for _, hidden := range []string{"ignored", "trackPageView", "color:red", "enable javascript"} {
		if strings.Contains(got, hidden) {
			t.Errorf("non-visible text %q leaked into output", hidden)
		}
	}
}

func TestFlattenHTMLHeadingLevels(t *testing.T) {
	got := flattenHTML(`<h2>Amenities</h2><h3>Fitness</h3>`)
	if !strings.Contains(got, "## Amenities") {
		t.Errorf("h2 marker missing:\n%s", got)
	}
	if !strings.Contains(got, "### Fitness") {
		t.Errorf("h3 marker missing:\n%s", got)
	}
}

func TestFlattenHTMLKeepsDocumentOrder(t *testing.T) {
	got := flattenHTML(`<p>first</p><p>second</p><p>third</p>`)
	first := strings.Index(got, "first")
	second := strings.Index(got, "second")
	third := strings.Index(got, "third")
	if first < 0 || second < 0 || third < 0 || first > second || second > third {
		t.Errorf("document order not preserved:\n%s", got)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	in := "a\n\n\n\nb  \n\nc\n"
	got := collapseBlankLines(in)
	want := "a\n\nb\n\nc"
	if got != want {
		t.Errorf("collapseBlankLines = %q, want %q", got, want)
	}
}
