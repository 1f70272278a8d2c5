package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	requestTimeout = 30 * time.Second
)

// Client scrapes the upstream bookseller site. One request per call, no
// retries: the caller decides what a failed crawl means.
type Client struct {
	baseURL *url.URL
	http    *resty.Client
}

func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseURL)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(u.Hostname()))
	client.SetTimeout(requestTimeout)

	return &Client{baseURL: u, http: client}, nil
}

func (c *Client) fetch(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	res, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("upstream status=%d for %s", res.StatusCode(), path)
	}

	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}

// Navigation scrapes the top-level category tree from the landing page.
func (c *Client) Navigation(ctx context.Context) ([]Category, error) {
	doc, err := c.fetch(ctx, "/", nil)
	if err != nil {
		return nil, err
	}
	return parseNavigation(doc), nil
}

// Bestsellers scrapes the landing page shelves.
func (c *Client) Bestsellers(ctx context.Context) ([]Shelf, error) {
	doc, err := c.fetch(ctx, "/", nil)
	if err != nil {
		return nil, err
	}
	return parseShelves(doc), nil
}

// Category scrapes one page of a category listing. Pages start at 1.
func (c *Client) Category(ctx context.Context, slug string, page int) ([]Product, error) {
	if page < 1 {
		page = 1
	}

	doc, err := c.fetch(ctx, "/collections/"+url.PathEscape(slug), map[string]string{
		"page": fmt.Sprintf("%d", page),
	})
	if err != nil {
		return nil, err
	}
	return parseProducts(doc.Selection), nil
}

// ProductDetail searches the upstream site for a title and scrapes the first
// result's detail page. A miss yields an empty Detail, not an error.
func (c *Client) ProductDetail(ctx context.Context, title string) (Detail, error) {
	doc, err := c.fetch(ctx, "/search", map[string]string{"q": title})
	if err != nil {
		return Detail{}, err
	}

	href, ok := doc.Find(".product-card a").First().Attr("href")
	if !ok || href == "" {
		return Detail{}, nil
	}

	page, err := c.fetch(ctx, href, nil)
	if err != nil {
		return Detail{}, err
	}
	return parseDetail(page), nil
}
