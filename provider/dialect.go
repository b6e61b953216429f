package provider

import (
	"net/http"
)

// Dialect holds what differs between providers at the HTTP level.
type Dialect interface {
	// Kind names the provider.
	Kind() Kind
	// DecodeError turns a non-2xx response into an APIError. The body of resp is readable.
	DecodeError(resp *http.Response) *APIError
	// NextPage returns the URL of the page after resp, if there is one.
	NextPage(resp *http.Response) (string, bool)
	// NextLinkCarriesParams reports whether next page URLs already embed the original query,
	// in which case the query is not re-sent after the first page.
	NextLinkCarriesParams() bool
}
