package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
)

// base joins a service base URL with path segments, escaping each segment.
func base(serviceURL string, segments ...string) string {
	u := strings.TrimRight(serviceURL, "/")
	for _, s := range segments {
		u += "/" + url.PathEscape(s)
	}
	return u
}

// getter issues GETs against one downstream service.
type getter struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
}

func (g getter) get(ctx context.Context, dst any, segments ...string) error {
	return httpclient.GetJSON(ctx, g.http, base(g.baseURL, segments...), dst)
}
