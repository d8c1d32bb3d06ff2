package teamsync

import (
	"fmt"
	"net/url"

	"github.com/meltforce/wodlink/internal/share"
)

// Inbound is the environment a shared link arrives through, such as the
// query string of the landing URL.
type Inbound interface {
	Lookup(param string) (string, bool)
	// Clear removes every token parameter so the link cannot be processed
	// again.
	Clear()
}

// lookup finds the token to process. When several token parameters are
// present the precedence is wod > day > blueprint.
func lookup(in Inbound) (share.Kind, string, bool) {
	for _, k := range share.Kinds {
		if tok, ok := in.Lookup(k.Param()); ok {
			return k, tok, true
		}
	}
	return "", "", false
}

// URLInbound reads tokens from a URL's query string.
type URLInbound struct {
	u       *url.URL
	query   url.Values
	cleared int
}

// NewURLInbound wraps u. The URL is copied and never modified.
func NewURLInbound(u *url.URL) *URLInbound {
	c := *u
	return &URLInbound{u: &c, query: u.Query()}
}

// ParseLink parses a pasted share link.
func ParseLink(link string) (*URLInbound, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parsing link: %w", err)
	}
	return NewURLInbound(u), nil
}

// Lookup returns the value of param if present.
func (in *URLInbound) Lookup(param string) (string, bool) {
	if !in.query.Has(param) {
		return "", false
	}
	return in.query.Get(param), true
}

// Clear drops the token parameters.
func (in *URLInbound) Clear() {
	for _, k := range share.Kinds {
		in.query.Del(k.Param())
	}
	in.cleared++
}

// Cleared reports how many times Clear was called.
func (in *URLInbound) Cleared() int { return in.cleared }

// Location returns the URL without token parameters, for replacing the
// address the link was opened from.
func (in *URLInbound) Location() string {
	c := *in.u
	c.RawQuery = in.query.Encode()
	c.Fragment = ""
	c.RawFragment = ""
	if c.RawQuery == "" && c.Path == "" {
		c.Path = "/"
	}
	return c.String()
}
