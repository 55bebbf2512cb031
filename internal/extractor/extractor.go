package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"listing_watcher/internal/domain"
	"listing_watcher/internal/seen"
)

const (
	listingSelector = "li[epoch]"
	// Thumbnails link to the same listing; the title anchor is the one
	// without an image inside.
	anchorSelector = "a[href*='/cls/']:not(:has(img))"
	dateSelector   = ".epoch"

	dateLayout = "2006-01-02 15:04:05"
)

var (
	priceRegexp    = regexp.MustCompile(`(?i)^(SAR|SR)\s*([\d,]+(?:\.\d+)?),\s*(.*)$`)
	locationRegexp = regexp.MustCompile(`(?i)\b(RIYADH|JEDDAH|DAMMAM|SAUDI ARABIA)\b.*`)
)

type Config struct {
	// BaseURL is the site origin relative links and images resolve against.
	BaseURL string
	// Location is used for the epoch date fallback. Defaults to time.Local.
	Location *time.Location
}

// Extractor turns a category index page into listing records.
type Extractor struct {
	base   *url.URL
	loc    *time.Location
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Extractor, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Extractor{
		base:   base,
		loc:    loc,
		logger: logger.With("component", "extractor"),
	}, nil
}

// Extract returns the listings found in html, in document order.
// Malformed elements are logged and skipped.
func (e *Extractor) Extract(html, category string) []domain.Listing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Error("failed to parse document",
			"category", category,
			"error", err,
		)
		return nil
	}

	var listings []domain.Listing
	doc.Find(listingSelector).Each(func(i int, li *goquery.Selection) {
		listing, ok, err := e.parseSafe(li, category)
		if err != nil {
			e.logger.Warn("skipping listing",
				"category", category,
				"error", &domain.ParseError{Category: category, Index: i, Err: err},
			)
			return
		}
		if ok {
			listings = append(listings, listing)
		}
	})

	return listings
}

func (e *Extractor) parseSafe(li *goquery.Selection, category string) (listing domain.Listing, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.parse(li, category)
}

// parse returns ok=false without an error for elements that carry no
// listing link.
func (e *Extractor) parse(li *goquery.Selection, category string) (domain.Listing, bool, error) {
	rawEpoch := strings.TrimSpace(li.AttrOr("epoch", ""))
	epoch, err := strconv.ParseInt(rawEpoch, 10, 64)
	if err != nil {
		return domain.Listing{}, false, fmt.Errorf("invalid epoch %q: %w", rawEpoch, err)
	}
	premium := li.AttrOr("premium", "") == "True"

	anchor := li.Find(anchorSelector).First()
	if anchor.Length() == 0 {
		return domain.Listing{}, false, nil
	}

	href, _ := anchor.Attr("href")
	link, err := e.resolve(href)
	if err != nil {
		return domain.Listing{}, false, fmt.Errorf("resolve link %q: %w", href, err)
	}

	image := domain.NoImage
	if src := li.Find("img").First().AttrOr("src", ""); src != "" {
		image, err = e.resolve(src)
		if err != nil {
			return domain.Listing{}, false, fmt.Errorf("resolve image %q: %w", src, err)
		}
	}

	price, title := splitPrice(collapse(anchor.Text()))

	postedDate := strings.TrimSpace(li.Find(dateSelector).First().Text())
	if postedDate == "" {
		postedDate = time.Unix(epoch, 0).In(e.loc).Format(dateLayout)
	}

	return domain.Listing{
		ID:          seen.ID(category, rawEpoch, title),
		Category:    category,
		Title:       title,
		Price:       price,
		Description: title,
		Link:        link,
		Image:       image,
		Premium:     premium,
		Location:    findLocation(visibleText(li)),
		PostedDate:  postedDate,
	}, true, nil
}

func (e *Extractor) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return e.base.ResolveReference(u).String(), nil
}

// splitPrice separates a leading "SAR 1,200," style price from the title.
func splitPrice(text string) (price, title string) {
	m := priceRegexp.FindStringSubmatch(text)
	if m == nil {
		return domain.NoPrice, text
	}
	return strings.ToUpper(m[1]) + " " + m[2], m[3]
}

func findLocation(text string) string {
	if loc := locationRegexp.FindString(text); loc != "" {
		return loc
	}
	return domain.NoLocation
}
