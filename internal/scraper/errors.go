package scraper

import "fmt"

// ErrorKind classifies crawl errors so callers can decide between retry,
// soft skip and run abort.
type ErrorKind string

const (
	// KindNetwork covers timeouts, connection errors and non-2xx statuses.
	KindNetwork ErrorKind = "network"
	// KindParsing covers malformed HTML, sitemap XML and structured data.
	KindParsing ErrorKind = "parsing"
	// KindRateLimit covers hosts that answered 429/430.
	KindRateLimit ErrorKind = "rate_limit"
	// KindSink covers output sink failures; these abort the run.
	KindSink ErrorKind = "sink"
)

// Error is a crawl error tagged with its kind and the site it belongs to.
type Error struct {
	Kind ErrorKind
	Site string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Site, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Site)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error must abort the whole run. Only sink
// failures qualify; everything else degrades to a page or site skip.
func (e *Error) Fatal() bool {
	return e.Kind == KindSink
}

func newError(kind ErrorKind, site string, err error) *Error {
	return &Error{Kind: kind, Site: site, Err: err}
}
