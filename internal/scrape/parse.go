package scrape

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// cleanText normalizes scraped text: printable runes only, trimmed, inner
// whitespace runs collapsed.
func cleanText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	return innerWhitespace.ReplaceAllString(out, " ")
}

func parseNavigation(doc *goquery.Document) []Category {
	var cats []Category

	doc.Find("nav[data-site-nav] > ul > li").Each(func(_ int, li *goquery.Selection) {
		link := li.ChildrenFiltered("a").First()
		title := cleanText(link.Text())
		if title == "" {
			return
		}
		href := link.AttrOr("href", "")

		cat := Category{
			ID:    productID(title),
			Title: title,
			URL:   href,
		}

		li.Find("ul li a").Each(func(_ int, sub *goquery.Selection) {
			subTitle := cleanText(sub.Text())
			if subTitle == "" {
				return
			}
			cat.Children = append(cat.Children, Category{
				ID:    productID(subTitle),
				Title: subTitle,
				URL:   sub.AttrOr("href", ""),
			})
		})

		cats = append(cats, cat)
	})

	return cats
}

func parseShelves(doc *goquery.Document) []Shelf {
	var shelves []Shelf

	doc.Find("section[data-shelf]").Each(func(_ int, sec *goquery.Selection) {
		title := cleanText(sec.Find("h2").First().Text())
		if title == "" {
			return
		}

		slug := sec.AttrOr("data-shelf", "")
		if slug == "" {
			slug = slugify(title)
		}

		shelves = append(shelves, Shelf{
			Title:    title,
			Slug:     slug,
			Products: parseProducts(sec),
		})
	})

	return shelves
}

func parseProducts(sel *goquery.Selection) []Product {
	var products []Product

	sel.Find(".product-card").Each(func(_ int, card *goquery.Selection) {
		title := cleanText(card.Find(".product-card__title").First().Text())
		if title == "" {
			return
		}

		products = append(products, Product{
			ID:     productID(title),
			Title:  title,
			Author: cleanText(card.Find(".product-card__author").First().Text()),
			Price:  cleanText(card.Find(".price__current").First().Text()),
			Image:  card.Find("img").First().AttrOr("src", ""),
			Promo:  cleanText(card.Find(".product-card__promo").First().Text()),
		})
	})

	return products
}

func parseDetail(doc *goquery.Document) Detail {
	d := Detail{
		Summary:   cleanText(doc.Find(".product__description").First().Text()),
		Condition: cleanText(doc.Find(".product__condition").First().Text()),
	}

	doc.Find("table.product-specs tr").Each(func(_ int, row *goquery.Selection) {
		key := cleanText(row.Find("th").First().Text())
		val := cleanText(row.Find("td").First().Text())
		if key == "" || val == "" {
			return
		}
		if d.Specifications == nil {
			d.Specifications = map[string]string{}
		}
		d.Specifications[key] = val
	})

	doc.Find(".review__text").Each(func(_ int, rev *goquery.Selection) {
		text := cleanText(rev.Text())
		if text != "" {
			d.Reviews = append(d.Reviews, Review{Text: text})
		}
	})

	d.Recommendations = parseProducts(doc.Find(".recommended"))
	return d
}

var slugJunk = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(slugJunk.ReplaceAllString(strings.ToLower(title), "-"), "-")
}
