package views

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"

	"github.com/procyborg2222/SAFETAG/internal/content"
	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/nav"
)

func parse(t *testing.T, n g.Node) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, n))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func fullGuideControl(state download.State) DownloadControl {
	return DownloadControl{
		OutputID:  guide.FullGuide,
		State:     state,
		Label:     LabelFullGuide,
		Title:     "Download full guide as PDF",
		CSRFToken: "tok",
	}
}

func homeData(state download.State) HomeData {
	return HomeData{
		Page:     PageData{SiteTitle: "Safetag guide", Path: "/", Nav: nav.Build("/")},
		Download: fullGuideControl(state),
		Methods:  []content.MethodSummary{
			{Slug: "/methods/reconnaissance/", Title: "Reconnaissance", IconURL: "/assets/icons/recon.svg", Excerpt: "Learn about the org."},
			{Slug: "/methods/network_mapping/", Title: "Network Mapping", IconURL: "/assets/icons/net.svg", Excerpt: "Map the network."},
			{Slug: "/methods/data_assessment/", Title: "Data Assessment", IconURL: "/assets/icons/data.svg", Excerpt: "Find the data."},
		},
	}
}

func TestHomePageRendersHeroAndCards(t *testing.T) {
	doc := parse(t, HomePage(homeData(download.Idle)))

	assert.Equal(t, "Safetag", strings.TrimSpace(doc.Find(".homepage-title").Text()))
	assert.Equal(t, "Custom guide creator_", doc.Find(".inpage-headline .subheading").Text())
	href, _ := doc.Find("a.more-link").Attr("href")
	assert.Equal(t, "/about/", href)

	cards := doc.Find(".card-list li a.card")
	require.Equal(t, 3, cards.Length())
	first := cards.First()
	href, _ = first.Attr("href")
	assert.Equal(t, "/methods/reconnaissance/", href)
	assert.Equal(t, "Reconnaissance", first.Find(".card-heading").Text())
	assert.Equal(t, "Learn about the org.", first.Find(".card-excerpt").Text())
	src, _ := first.Find("img").Attr("src")
	assert.Equal(t, "/assets/icons/recon.svg", src)
	assert.Equal(t, "Explore all Safetag Methods", doc.Find("#allMethods + .subheading").Text())
}

func TestDownloadButtonIdle(t *testing.T) {
	doc := parse(t, DownloadButton(fullGuideControl(download.Idle)))

	form := doc.Find("form#download-full-guide")
	require.Equal(t, 1, form.Length())
	action, _ := form.Attr("action")
	assert.Equal(t, "/guide/full-guide/prepare", action)
	hx, _ := form.Attr("hx-post")
	assert.Equal(t, "/guide/full-guide/prepare", hx)
	state, _ := form.Attr("data-state")
	assert.Equal(t, "idle", state)

	btn := form.Find("button")
	_, disabled := btn.Attr("disabled")
	assert.False(t, disabled)
	assert.Equal(t, LabelFullGuide, strings.TrimSpace(btn.Text()))
	assert.Equal(t, 0, btn.Find(".spinner").Length())
	title, _ := btn.Attr("title")
	assert.Equal(t, "Download full guide as PDF", title)

	token, _ := form.Find("input[name=csrf_token]").Attr("value")
	assert.Equal(t, "tok", token)
}

func TestDownloadButtonDownloading(t *testing.T) {
	ctl := fullGuideControl(download.Downloading)
	doc := parse(t, DownloadButton(ctl))

	wrap := doc.Find("div#download-full-guide")
	require.Equal(t, 1, wrap.Length())
	poll, _ := wrap.Attr("hx-get")
	assert.Equal(t, "/guide/full-guide/status", poll)
	trigger, _ := wrap.Attr("hx-trigger")
	assert.Equal(t, StatusPollInterval, trigger)

	btn := wrap.Find("button")
	_, disabled := btn.Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, LabelDownloading, strings.TrimSpace(btn.Text()))
	assert.Equal(t, 1, btn.Find(".spinner").Length())
	assert.Equal(t, 0, doc.Find("form").Length())
}

func TestDownloadButtonExposesLastResult(t *testing.T) {
	ctl := fullGuideControl(download.Idle)
	ctl.LastResult = download.Failed
	doc := parse(t, DownloadButton(ctl))

	result, _ := doc.Find("#download-full-guide").Attr("data-last-result")
	assert.Equal(t, "failed", result)
	assert.Equal(t, 0, doc.Find(".form-error").Length())
}

func TestCustomGuideLinkIgnoresDownloadState(t *testing.T) {
	for _, state := range []download.State{download.Idle, download.Downloading} {
		doc := parse(t, HomePage(homeData(state)))
		link := doc.Find("a#create-custom-guide")
		require.Equal(t, 1, link.Length())
		href, _ := link.Attr("href")
		assert.Equal(t, "/guide-builder/", href)
		assert.Equal(t, "Create Custom Guide", link.Text())
	}
}

func TestBuilderPageAssociatesCheckboxes(t *testing.T) {
	doc := parse(t, BuilderPage(BuilderData{
		Page: PageData{SiteTitle: "Safetag guide"},
		Download: DownloadControl{
			OutputID: guide.CustomGuide,
			Label:    LabelCustomGuide,
		},
		Methods: []content.Method{
			{Name: "reconnaissance", Title: "Reconnaissance"},
			{Name: "network_mapping", Title: "Network Mapping"},
		},
		Selected: map[string]bool{"network_mapping": true},
		Error:    "Select at least one method.",
	}))

	boxes := doc.Find("input[type=checkbox][name=method]")
	require.Equal(t, 2, boxes.Length())
	owner, _ := boxes.First().Attr("form")
	assert.Equal(t, "download-custom-guide", owner)
	_, checked := boxes.Last().Attr("checked")
	assert.True(t, checked)
	assert.Equal(t, "Select at least one method.", doc.Find(".form-error").Text())
	assert.Equal(t, 1, doc.Find("form#download-custom-guide").Length())
}

func TestGuideDocument(t *testing.T) {
	doc := parse(t, GuideDocument(guide.Document{
		Title:    "SAFETAG Full Guide",
		OutputID: guide.FullGuide,
		Front:    []guide.Chapter{{ID: "section-introduction", Kind: "section", Title: "Introduction", HTML: "<p>Hi</p>"}},
		Methods:  []guide.Chapter{{ID: "method-recon", Kind: "method", Title: "Recon", HTML: "<h2 id=\"method-recon--summary\">Summary</h2>"}},
		TOC: []guide.TOCEntry{
			{Level: 1, ID: "section-introduction", Text: "Introduction"},
			{Level: 1, ID: "method-recon", Text: "Recon"},
			{Level: 2, ID: "method-recon--summary", Text: "Summary"},
		},
		GeneratedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, "body{}"))

	assert.Equal(t, "SAFETAG Full Guide", doc.Find("title").Text())
	assert.Equal(t, 2, doc.Find("section.guide-chapter").Length())
	assert.Equal(t, 1, doc.Find(".guide-toc li.toc-heading").Length())
	assert.Contains(t, doc.Find(".guide-cover .subheading").Text(), "1 March 2024")
	assert.Contains(t, doc.Find("style").Text(), "@page")
}
