package snpedia

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/snpcrawl/snpcrawl/internal/genotype"
)

// ParsePage extracts structured annotation from a SNPedia page. The parsing
// is deliberately lenient: sections missing from the page (or moved by minor
// markup drift) yield zero values rather than errors, so one odd page never
// fails a whole batch.
func ParsePage(rsid string, html io.Reader) (*Annotation, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("parse page for %s: %w", rsid, err)
	}

	return &Annotation{
		Rsid:                  rsid,
		Description:           findDescription(doc),
		Summaries:             findGenotypeSummaries(doc),
		Orientation:           findOrientationRow(doc, "Orientation"),
		StabilizedOrientation: findStabilizedOrientation(doc),
		ReferenceBuild:        findReferenceBuild(doc),
	}, nil
}

// IsMissingPage reports whether the document is MediaWiki's placeholder for
// a page that does not exist.
func IsMissingPage(html []byte) bool {
	s := string(html)
	return strings.Contains(s, "noarticletext") ||
		strings.Contains(s, "There is currently no text in this page")
}

// findDescription extracts the summary banner. SNPedia renders it as a
// yellow inline-styled table above the genotype table.
func findDescription(doc *goquery.Document) string {
	var description string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		style, _ := table.Attr("style")
		if !strings.Contains(style, "#FFFFC0") {
			return true
		}
		description = strings.TrimSpace(table.Find("td").First().Text())
		return false
	})
	return description
}

// findGenotypeSummaries extracts the genotype table rows. A magnitude cell
// that is empty or non-numeric leaves HasMagnitude false.
func findGenotypeSummaries(doc *goquery.Document) []GenotypeSummary {
	var summaries []GenotypeSummary

	doc.Find("table.sortable.smwtable tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return // header row or malformed
		}

		gtText := strings.TrimSpace(cells.Eq(0).Text())
		gt, err := genotype.ParseGenotype(gtText)
		if err != nil {
			return
		}

		summary := GenotypeSummary{
			Genotype:    gt,
			Description: strings.TrimSpace(cells.Eq(2).Text()),
		}
		if magText := strings.TrimSpace(cells.Eq(1).Text()); magText != "" {
			if mag, err := strconv.ParseFloat(magText, 64); err == nil {
				summary.Magnitude = mag
				summary.HasMagnitude = true
			}
		}

		summaries = append(summaries, summary)
	})

	return summaries
}

// findOrientationRow locates the table row whose label links to the given
// wiki page title and reads the plus/minus value cell from it.
func findOrientationRow(doc *goquery.Document, title string) Orientation {
	var result Orientation
	doc.Find(fmt.Sprintf("a[title=%q]", title)).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		row := link.Closest("tr")
		if row.Length() == 0 {
			return true
		}
		result = orientationFromRow(row)
		return result == ""
	})
	return result
}

// findStabilizedOrientation handles both markup variants SNPedia has used:
// a plain td labelled Rs_StabilizedOrientation and a linked label.
func findStabilizedOrientation(doc *goquery.Document) Orientation {
	var result Orientation
	doc.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if strings.TrimSpace(cell.Text()) != "Rs_StabilizedOrientation" {
			return true
		}
		result = orientationFromRow(cell.Closest("tr"))
		return result == ""
	})
	if result != "" {
		return result
	}
	return findOrientationRow(doc, "StabilizedOrientation")
}

func orientationFromRow(row *goquery.Selection) Orientation {
	var result Orientation
	row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		switch strings.TrimSpace(cell.Text()) {
		case "plus":
			result = OrientationPlus
			return false
		case "minus":
			result = OrientationMinus
			return false
		}
		return true
	})
	return result
}

// findReferenceBuild reads the build name from the row labelled Reference.
func findReferenceBuild(doc *goquery.Document) string {
	var build string
	doc.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if strings.TrimSpace(cell.Text()) != "Reference" {
			return true
		}
		build = strings.TrimSpace(cell.Closest("tr").Find("a").First().Text())
		return false
	})
	return build
}
