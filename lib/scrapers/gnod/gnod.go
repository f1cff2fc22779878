// Package gnod scrapes closeness data off the gnod map sites
// (music-map.com, literature-map.com and friends). Every subject page
// lists a cloud of related items plus a hidden script carrying the
// pairwise closeness matrix for everything on the page.
package gnod

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/clessn/scrapessn/lib/restyutil"
	"github.com/clessn/scrapessn/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrapers/gnod")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	cache   pageCache
}

type ClientOptions struct {
	// e.g. "https://www.music-map.com"
	BaseUrl string
	// optional badger db holding fetched pages, nil disables caching
	Cache *badger.DB
	// how long a cached page stays fresh, defaults to 24 hours
	CacheLifetime time.Duration
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	} else {
		telemetry.InstrumentResty(client, "scrapers/gnod/http")
	}

	lifetime := opts.CacheLifetime
	if lifetime <= 0 {
		lifetime = time.Hour * 24
	}

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		cache: pageCache{
			db:       opts.Cache,
			baseUrl:  baseUrl,
			lifetime: lifetime,
		},
	}
	return c, nil
}

// FetchDocument retrieves the map page for a raw subject ref, going
// through the page cache when one is attached. Transport failures and
// non-200 statuses are reported as ErrFetch.
func (c *Client) FetchDocument(ctx context.Context, subjectRef string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDocument")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "subject_ref",
		Value: attribute.StringValue(subjectRef),
	})

	endpoint := "/" + subjectRef

	cached, err := c.cache.get(ctx, endpoint)
	if err == nil {
		doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(cached.Contents))
		if err != nil {
			return nil, fmt.Errorf("%w: cached %s: %v", ErrFetch, endpoint, err)
		}
		span.SetStatus(codes.Ok, "CACHE HIT")
		return doc, nil
	}
	if err != errPageNotCached {
		span.RecordError(err)
		span.AddEvent("CACHE ERROR", trace.WithAttributes(attribute.KeyValue{
			Key:   "log.severity",
			Value: attribute.StringValue("WARN"),
		}))
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, endpoint, err)
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "bad response status")
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrFetch, endpoint, res.StatusCode())
	}

	body := res.Body()
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, endpoint, err)
	}

	err = c.cache.set(ctx, endpoint, page{
		Contents:  body,
		ExpiresAt: time.Now().Add(c.cache.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.AddEvent("CACHE ERROR", trace.WithAttributes(attribute.KeyValue{
			Key:   "log.severity",
			Value: attribute.StringValue("WARN"),
		}))
	}

	return doc, nil
}
