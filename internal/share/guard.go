package share

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

// MaxLinkLength is the longest share link accepted, in characters. Browsers
// and messaging apps commonly truncate or reject longer URLs.
const MaxLinkLength = 2000

// Guard bounds the length of share links. The zero value uses MaxLinkLength.
type Guard struct {
	Limit int
}

func (g Guard) limit() int {
	if g.Limit <= 0 {
		return MaxLinkLength
	}
	return g.Limit
}

// Check rejects a link longer than the limit. A link of exactly the limit
// is accepted.
func (g Guard) Check(link string) error {
	n := utf8.RuneCountInString(link)
	if n > g.limit() {
		return &PayloadTooLargeError{Length: n, Limit: g.limit()}
	}
	return nil
}

// BuildLink embeds token in base under the kind's query parameter and checks
// the final length. Any query or fragment already on base is dropped.
func (g Guard) BuildLink(base string, kind Kind, token string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("share: unknown kind %q", kind)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false

	link := u.String() + "?" + kind.Param() + "=" + token
	if err := g.Check(link); err != nil {
		return "", err
	}
	return link, nil
}
