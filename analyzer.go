package optimizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/zombar/optimizer/models"
)

// Analyzer inspects a page's raw content and produces its structural
// fingerprint plus a ranked list of content gaps.
type Analyzer struct {
	config Config
	store  Store
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(config Config, store Store) *Analyzer {
	return &Analyzer{config: config, store: store}
}

// Markdown-style heading and link markers. Heading detection must accept both
// HTML and lightweight markup; `^##\s` deliberately does not match `###`.
var (
	mdH1Pattern   = regexp.MustCompile(`(?m)^#\s`)
	mdH2Pattern   = regexp.MustCompile(`(?m)^##\s`)
	mdH3Pattern   = regexp.MustCompile(`(?m)^###\s`)
	mdLinkPattern = regexp.MustCompile(`\]\(/`)
)

// Categories that are expected to carry an FAQ block.
var faqCategories = map[string]bool{
	"product":    true,
	"calculator": true,
	"hub":        true,
	"pillar":     true,
	"cluster":    true,
	"guide":      true,
	"howto":      true,
}

// Transactional categories that are expected to carry a proof block.
var proofCategories = map[string]bool{
	"product":    true,
	"calculator": true,
	"comparison": true,
}

// gapRecommendations maps each gap type to its actionable instruction.
var gapRecommendations = map[string]string{
	models.GapMissingH1:       "Add a single descriptive H1 heading to the page.",
	models.GapFewH2:           "Break the content into sections with at least three H2 headings.",
	models.GapThinContent:     "Expand the content to meet the minimum word count for this page type.",
	models.GapMissingFAQ:      "Add an FAQ block answering the most common questions for this page.",
	models.GapMissingProof:    "Add a proof block documenting the measurement protocol behind the claims.",
	models.GapNoSchema:        "Declare a structured-data type so the page can emit schema markup.",
	models.GapLowLinks:        "Add more internal links to related pages.",
	models.GapMissingGlossary: "Add a glossary block defining the key terms used on the page.",
}

// fingerprint is the raw structural measurement of one page's content.
type fingerprint struct {
	hasH1         bool
	h2Count       int
	h3Count       int
	wordCount     int
	hasFAQ        bool
	hasProof      bool
	hasGlossary   bool
	hasSchema     bool
	outboundLinks int
}

// Analyze inspects one page and returns its structural fingerprint plus the
// gap list sorted descending by impact. As a side effect it upserts the
// page's metrics row with the fresh structural fields; the score fields are
// left untouched (only the scorer writes those).
func (a *Analyzer) Analyze(page *models.Page) (*models.ContentAnalysis, error) {
	fp := a.measure(page)
	gaps := a.detectGaps(page, fp)

	// One instruction per gap, in sorted gap order.
	recs := make([]string, 0, len(gaps))
	for _, g := range gaps {
		recs = append(recs, gapRecommendations[g.Type])
	}

	analysis := &models.ContentAnalysis{
		PageID:          page.ID,
		HasH1:           fp.hasH1,
		H2Count:         fp.h2Count,
		H3Count:         fp.h3Count,
		WordCount:       fp.wordCount,
		HasFAQ:          fp.hasFAQ,
		HasProof:        fp.hasProof,
		HasGlossary:     fp.hasGlossary,
		HasSchema:       fp.hasSchema,
		OutboundLinks:   fp.outboundLinks,
		Gaps:            gaps,
		Recommendations: recs,
	}

	if err := a.upsertMetrics(page, fp); err != nil {
		return nil, fmt.Errorf("failed to save metrics for page %s: %w", page.ID, err)
	}

	return analysis, nil
}

// measure computes the structural fingerprint of the page's combined content.
// Content that cannot be parsed is treated as empty rather than failing;
// analysis is always best-effort over text.
func (a *Analyzer) measure(page *models.Page) fingerprint {
	combined := page.Content
	if page.GeneratedContent != "" {
		combined += "\n" + page.GeneratedContent
	}

	var fp fingerprint

	// Walk the HTML form for headings, internal hrefs, and tag-stripped text.
	// Plain and markdown text passes through the parser as text nodes, so the
	// same walk serves both markup forms.
	text, htmlH1, htmlH2, htmlH3, htmlHrefs := walkContent(combined)

	fp.hasH1 = htmlH1 > 0 || mdH1Pattern.MatchString(combined)
	fp.h2Count = htmlH2 + len(mdH2Pattern.FindAllString(combined, -1))
	fp.h3Count = htmlH3 + len(mdH3Pattern.FindAllString(combined, -1))
	fp.wordCount = len(strings.Fields(text))

	lower := strings.ToLower(combined)
	blocks := blockSet(page.ComponentBlocks)

	fp.hasFAQ = blocks["faq"] ||
		strings.Contains(lower, `class="faq`) ||
		strings.Contains(lower, "faqpage") ||
		strings.Contains(lower, "frequently asked")
	fp.hasProof = blocks["proof"] ||
		strings.Contains(lower, `class="proof`) ||
		strings.Contains(lower, "measurement protocol")
	fp.hasGlossary = blocks["glossary"] ||
		strings.Contains(lower, "<dl") ||
		strings.Contains(lower, "<abbr") ||
		strings.Contains(lower, "glossary")
	fp.hasSchema = page.SchemaType != ""

	// Declared links and in-content links are two views of the same fact:
	// take the max, not the sum.
	inContent := htmlHrefs + len(mdLinkPattern.FindAllString(combined, -1))
	fp.outboundLinks = max(inContent, len(page.InternalLinks))

	return fp
}

// detectGaps applies every gap rule independently, then sorts the result
// descending by impact.
func (a *Analyzer) detectGaps(page *models.Page, fp fingerprint) []models.ContentGap {
	typeKey := effectiveType(page.Template, page.Category)
	gaps := []models.ContentGap{}

	if !fp.hasH1 {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapMissingH1,
			Severity: models.SeverityCritical,
			Message:  "Page has no H1 heading",
			Impact:   9,
		})
	}
	if fp.h2Count < 3 {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapFewH2,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Page has only %d H2 headings", fp.h2Count),
			Impact:   3,
		})
	}
	if minWords := a.config.minWordCount(typeKey); fp.wordCount < minWords {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapThinContent,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Content has %d words, below the %d minimum for %s pages", fp.wordCount, minWords, typeKey),
			Impact:   6,
		})
	}
	if faqCategories[typeKey] && !fp.hasFAQ {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapMissingFAQ,
			Severity: models.SeverityWarning,
			Message:  "Page has no FAQ block",
			Impact:   5,
		})
	}
	if proofCategories[typeKey] && !fp.hasProof {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapMissingProof,
			Severity: models.SeverityWarning,
			Message:  "Transactional page has no proof block",
			Impact:   8,
		})
	}
	if !fp.hasSchema {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapNoSchema,
			Severity: models.SeverityInfo,
			Message:  "Page declares no structured-data type",
			Impact:   4,
		})
	}
	if fp.outboundLinks < 3 {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapLowLinks,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Page has only %d outbound internal links", fp.outboundLinks),
			Impact:   7,
		})
	}
	if fp.wordCount > 600 && !fp.hasGlossary {
		gaps = append(gaps, models.ContentGap{
			Type:     models.GapMissingGlossary,
			Severity: models.SeverityInfo,
			Message:  "Long-form page has no glossary block",
			Impact:   2,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Impact > gaps[j].Impact
	})

	return gaps
}

// upsertMetrics writes the structural fields of the page's metrics row,
// preserving any previously computed score fields.
func (a *Analyzer) upsertMetrics(page *models.Page, fp fingerprint) error {
	m := &models.PageMetrics{PageID: page.ID}
	if existing, err := a.store.GetMetrics(page.ID); err != nil {
		return err
	} else if existing != nil {
		m = existing
	}

	inbound, err := a.store.CountInboundLinks(page.Path)
	if err != nil {
		return err
	}

	daysSince := daysSinceUpdate(page.UpdatedAt)
	interval := a.config.refreshInterval(page.RefreshIntervalDays, page.PriorityTier)

	m.HasH1 = fp.hasH1
	m.H2Count = fp.h2Count
	m.H3Count = fp.h3Count
	m.WordCount = fp.wordCount
	m.HasFAQ = fp.hasFAQ
	m.HasProof = fp.hasProof
	m.HasGlossary = fp.hasGlossary
	m.HasSchema = fp.hasSchema
	m.OutboundLinks = fp.outboundLinks
	m.InboundLinks = inbound
	m.Orphan = inbound == 0
	m.DaysSinceUpdate = daysSince
	m.Stale = daysSince > interval
	m.CalculatedAt = time.Now().UTC()

	return a.store.UpsertMetrics(m)
}

// walkContent parses the content and walks the tree, returning the
// tag-stripped text, the H1/H2/H3 element counts, and the count of internal
// href attributes. Script and style subtrees are skipped.
func walkContent(content string) (text string, h1, h2, h3, internalHrefs int) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// Unmeasurable content counts as empty.
		return "", 0, 0, 0, 0
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				buf.WriteString(t)
				buf.WriteString(" ")
			}
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "h1":
				h1++
			case "h2":
				h2++
			case "h3":
				h3++
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" && strings.HasPrefix(attr.Val, "/") {
						internalHrefs++
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), h1, h2, h3, internalHrefs
}

// blockSet converts the declared component-block list into a set for O(1)
// membership checks.
func blockSet(blocks []string) map[string]bool {
	set := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		set[strings.ToLower(b)] = true
	}
	return set
}

// daysSinceUpdate returns whole days elapsed since the given timestamp.
func daysSinceUpdate(updatedAt time.Time) int {
	if updatedAt.IsZero() {
		return 0
	}
	return int(time.Since(updatedAt).Hours() / 24)
}
