package tenant

import (
	"net/url"
	"strings"
)

// Resolver extracts a tenant key from a request's hostname or URL. Resolution
// is a pure function of its inputs: no I/O, no side effects. An empty result
// means "root domain, no tenant"; the bare root domain and its www variant
// must never resolve to an empty-string tenant key that routes somewhere.
type Resolver struct {
	// RootDomain is the apex domain, e.g. "complyhq.org".
	RootDomain string
	// LocalMarker identifies local development hosts, e.g. ".localhost".
	LocalMarker string
	// PreviewMarker splits preview-deployment hostnames, e.g. "---" in
	// "acme---feature-x.preview.app".
	PreviewMarker string
}

// ResolveKey returns the tenant key carried by the request, or "" when the
// request targets the root surface. rawURL is the full request URL; host is
// the Host header. Either may carry the local development hostname.
func (rv Resolver) ResolveKey(rawURL, host string) string {
	urlHost := ""
	if u, err := url.Parse(rawURL); err == nil {
		urlHost = u.Host
	}
	hostname := hostOnly(host)

	if rv.LocalMarker != "" && (isLocalHost(urlHost, rv.LocalMarker) || isLocalHost(host, rv.LocalMarker)) {
		if key := localLabel(urlHost, rv.LocalMarker); key != "" {
			return key
		}
		return localLabel(host, rv.LocalMarker)
	}

	if rv.PreviewMarker != "" && strings.Contains(hostname, rv.PreviewMarker) {
		return strings.SplitN(hostname, rv.PreviewMarker, 2)[0]
	}

	root := strings.ToLower(rv.RootDomain)
	if root == "" || hostname == root || hostname == "www."+root {
		return ""
	}
	if label, ok := strings.CutSuffix(hostname, "."+root); ok {
		if label == "" || label == "www" {
			return ""
		}
		return label
	}
	return ""
}

func isLocalHost(host, marker string) bool {
	host = hostOnly(host)
	return host == strings.TrimPrefix(marker, ".") || strings.Contains(host, marker)
}

// localLabel extracts the subdomain label in front of the local marker, e.g.
// "acme" from "acme.localhost:3000".
func localLabel(host, marker string) string {
	host = hostOnly(host)
	idx := strings.Index(host, marker)
	if idx <= 0 {
		return ""
	}
	label := host[:idx]
	// Nested labels keep only the innermost one next to the marker.
	if dot := strings.LastIndex(label, "."); dot >= 0 {
		label = label[dot+1:]
	}
	return label
}

func hostOnly(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if idx := strings.LastIndex(host, ":"); idx >= 0 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	return strings.TrimSuffix(host, ".")
}
