package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// Proxy routes requests to upstream services by path prefix. Longer
// prefixes win, so "/v1/api/user" can live alongside "/v1/api".
type Proxy struct {
	routes []proxyRoute
}

type proxyRoute struct {
	prefix  string
	handler *httputil.ReverseProxy
}

// NewProxy builds a reverse proxy from prefix → upstream base URL.
func NewProxy(upstreams map[string]string) (*Proxy, error) {
	p := &Proxy{routes: make([]proxyRoute, 0, len(upstreams))}
	for prefix, raw := range upstreams {
		target, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("gateway: bad upstream url %q: %w", raw, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("gateway: upstream %q must be an absolute url", raw)
		}

		rp := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				slogx.FromContext(r.Context()).Error("gateway: upstream error",
					"upstream", target.Host, "path", r.URL.Path, "err", err)
				httpx.WriteError(w, http.StatusBadGateway, "upstream_unavailable",
					"the upstream service did not respond")
			},
		}
		p.routes = append(p.routes, proxyRoute{prefix: prefix, handler: rp})
	}

	sort.Slice(p.routes, func(i, j int) bool {
		return len(p.routes[i].prefix) > len(p.routes[j].prefix)
	})
	return p, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, route := range p.routes {
		if strings.HasPrefix(r.URL.Path, route.prefix) {
			route.handler.ServeHTTP(w, r)
			return
		}
	}
	httpx.WriteError(w, http.StatusNotFound, "no_route",
		"no upstream is registered for this path")
}
