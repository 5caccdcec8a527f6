package whttp

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	HTTPTitle      string
	BodyString     string
}

// defaultClient serves requests made with a nil client. SetupProxy swaps it
// for a proxied one.
var defaultClient *retryablehttp.Client

// SetupProxy routes the default client through the given proxy URL.
// Certificate checks are skipped so intercepting proxies work.
func SetupProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %v", err)
	}

	client := NewRetryableClient(3)
	client.HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	defaultClient = client
	return nil
}

// NewRetryableClient returns the retrying HTTP client used for scraping:
// transient failures and 429s are retried with backoff, and the
// per-attempt logging retryablehttp does by default is silenced.
func NewRetryableClient(maxRetries int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.Logger = nil
	return client
}

// SendHTTPRequest performs a request with common scraping headers set.
// A nil client falls back to a non-retrying default.
func SendHTTPRequest(wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	req, err := retryablehttp.NewRequest(wReq.Method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0")
	req.Header.Set("Cache-Control", "no-transform")
	req.Header.Set("Accept-Language", "en")

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	if client == nil {
		if defaultClient == nil {
			defaultClient = NewRetryableClient(0)
		}
		client = defaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	wRes := &WHTTPRes{}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	wRes.BodyString = string(bodyBytes)
	wRes.StatusCode = resp.StatusCode

	if title, ok := getHTMLTitle(wRes.BodyString); ok {
		wRes.HTTPTitle = strings.ToValidUTF8(strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")), "")
	}

	wRes.ResponseLength = utf8.RuneCountInString(wRes.BodyString)
	return wRes, nil
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func getHTMLTitle(requestBody string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(requestBody))
	if err != nil {
		fmt.Println("Failed to parse HTML!")
		return "", true
	}

	return traverse(doc)
}
