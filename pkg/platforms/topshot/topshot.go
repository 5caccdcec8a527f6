package topshot

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hoopscope/hoopscope/pkg/challenge"
	"github.com/hoopscope/hoopscope/pkg/platforms"
	"github.com/hoopscope/hoopscope/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	USER_AGENT   = "Mozilla/5.0 (X11; Linux x86_64; rv:82.0) Gecko/20100101 Firefox/82.0"
	PLATFORM_URL = "https://nbatopshot.com"

	sessionCookieName = "__Secure-topshot-session"
)

// Source scrapes challenge pages from the Top Shot website.
type Source struct {
	sessionToken string
	client       *retryablehttp.Client
}

// NewSource builds a Top Shot source. maxRetries controls the HTTP retry
// policy for transient failures.
func NewSource(maxRetries int) *Source {
	return &Source{client: whttp.NewRetryableClient(maxRetries)}
}

func (s *Source) Name() string { return "topshot" }

func (s *Source) Authenticate(ctx context.Context, cfg platforms.AuthConfig) error {
	// Public challenge pages work without a session, but some challenges
	// only render their full requirement list for logged-in users.
	s.sessionToken = cfg.SessionToken
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %v", err)
		}

		// Apply proxy settings directly to this client
		s.client.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}

		// Also update the global client for other requests
		if err := whttp.SetupProxy(cfg.Proxy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Source) ListChallengeRefs(ctx context.Context, opts platforms.PollOptions) ([]string, error) {
	res, err := whttp.SendHTTPRequest(
		&whttp.WHTTPReq{
			Method:  "GET",
			URL:     PLATFORM_URL + "/challenges",
			Headers: s.requestHeaders(),
		}, s.client)

	if err != nil {
		return nil, err
	}

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("challenge index fetch failed with status %d", res.StatusCode)
	}

	return parseChallengeRefs(res.BodyString, opts.ActiveOnly)
}

func (s *Source) FetchChallenge(ctx context.Context, ref string, opts platforms.PollOptions) (challenge.Challenge, error) {
	pageURL := ref
	if !strings.HasPrefix(pageURL, "http") {
		pageURL = PLATFORM_URL + "/" + strings.TrimPrefix(ref, "/")
	}

	res, err := whttp.SendHTTPRequest(
		&whttp.WHTTPReq{
			Method:  "GET",
			URL:     pageURL,
			Headers: s.requestHeaders(),
		}, s.client)

	if err != nil {
		return challenge.Challenge{}, err
	}

	if res.StatusCode == 404 {
		return challenge.Challenge{}, fmt.Errorf("challenge %s no longer exists", ref)
	}

	if res.StatusCode != 200 {
		return challenge.Challenge{}, fmt.Errorf("challenge fetch for %s failed with status %d", ref, res.StatusCode)
	}

	return parseChallenge(res.BodyString, pageURL)
}

func (s *Source) requestHeaders() []whttp.WHTTPHeader {
	headers := []whttp.WHTTPHeader{
		{Name: "User-Agent", Value: USER_AGENT},
		{Name: "Accept", Value: "*/*"},
	}
	if s.sessionToken != "" {
		headers = append(headers, whttp.WHTTPHeader{
			Name:  "Cookie",
			Value: sessionCookieName + "=" + s.sessionToken,
		})
	}
	return headers
}

// parseChallengeRefs extracts challenge page paths from the challenge index.
// The index is a Next.js page, so the challenge list lives in the embedded
// __NEXT_DATA__ JSON blob. Plain anchor tags are used as a fallback in case
// the page shape changes.
func parseChallengeRefs(html string, activeOnly bool) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var refs []string
	seen := make(map[string]bool)

	doc.Find("#__NEXT_DATA__").Each(func(index int, sel *goquery.Selection) {
		json := sel.Contents().Text()
		gjson.Get(json, "props.pageProps.challenges").ForEach(func(key, value gjson.Result) bool {
			id := value.Get("id").String()
			if id == "" {
				return true
			}

			if activeOnly && strings.ToUpper(value.Get("status").String()) == "COMPLETED" {
				return true
			}

			ref := "/challenges/" + id
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
			return true
		})
	})

	if len(refs) > 0 {
		return refs, nil
	}

	doc.Find("a[href]").Each(func(index int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "/challenges/") || href == "/challenges/" {
			return
		}
		if !seen[href] {
			seen[href] = true
			refs = append(refs, href)
		}
	})

	if len(refs) == 0 {
		return nil, errors.New("no challenges found in index page")
	}

	return refs, nil
}

// parseChallenge extracts a single challenge and its required cards from a
// challenge page. Like the index, the structured data comes from
// __NEXT_DATA__ when present, with a DOM fallback for server-rendered pages.
func parseChallenge(html, pageURL string) (challenge.Challenge, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return challenge.Challenge{}, err
	}

	c := challenge.Challenge{URL: pageURL}

	doc.Find("#__NEXT_DATA__").Each(func(index int, sel *goquery.Selection) {
		json := sel.Contents().Text()
		jsonChallenge := gjson.Get(json, "props.pageProps.challenge")
		if !jsonChallenge.Exists() {
			return
		}

		c.ID = jsonChallenge.Get("id").String()
		c.Title = strings.TrimSpace(jsonChallenge.Get("title").String())

		jsonChallenge.Get("requirements").ForEach(func(key, value gjson.Result) bool {
			title := strings.TrimSpace(value.Get("title").String())
			if title == "" {
				title = strings.TrimSpace(value.Get("playerName").String())
			}
			if title == "" {
				return true
			}
			c.RequiredCards = append(c.RequiredCards, challenge.RequiredCard{
				Title:      title,
				RarityText: strings.TrimSpace(value.Get("rarity").String()),
			})
			return true
		})
	})

	if c.ID == "" {
		parseChallengeDOM(doc, pageURL, &c)
	}

	if c.ID == "" {
		return challenge.Challenge{}, fmt.Errorf("no challenge data found at %s", pageURL)
	}

	return c, nil
}

// parseChallengeDOM reads the challenge out of the rendered markup. Slower
// to maintain than the JSON blob but survives Next.js payload reshuffles.
func parseChallengeDOM(doc *goquery.Document, pageURL string, c *challenge.Challenge) {
	c.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if c.Title == "" {
		return
	}

	if id := refFromURL(pageURL); id != "" {
		c.ID = id
	}

	doc.Find("[data-testid='challenge-requirement']").Each(func(index int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("[data-testid='requirement-title']").Text())
		if title == "" {
			return
		}
		c.RequiredCards = append(c.RequiredCards, challenge.RequiredCard{
			Title:      title,
			RarityText: strings.TrimSpace(sel.Find("[data-testid='requirement-rarity']").Text()),
		})
	})
}

func refFromURL(pageURL string) string {
	idx := strings.Index(pageURL, "/challenges/")
	if idx == -1 {
		return ""
	}
	id := pageURL[idx+len("/challenges/"):]
	return strings.TrimSuffix(id, "/")
}
