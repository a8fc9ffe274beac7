package audit

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// ErrEmptyURL is returned when the submitted URL is empty or only whitespace.
//
//nolint:gochecknoglobals // sentinel error
var ErrEmptyURL = errors.New("url is required")

// ErrInvalidURL is returned when the submitted URL cannot name a website.
//
//nolint:gochecknoglobals // sentinel error
var ErrInvalidURL = errors.New("url is not a valid website address")

//nolint:gochecknoglobals // compiled once
var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// hostProfile is the lookup mapping without STD3 rules, so real hosts with underscores pass.
//
//nolint:gochecknoglobals // immutable profile
var hostProfile = idna.New(idna.MapForLookup(), idna.StrictDomainName(false))

// NormalizeURL trims the input and prefixes https:// unless it already carries an http or
// https scheme, in which case it is returned as is.
func NormalizeURL(raw string) (normalized string, err error) {
	normalized = strings.TrimSpace(raw)
	if normalized == "" {
		err = ErrEmptyURL
		return normalized, err
	}

	if !schemePattern.MatchString(normalized) {
		normalized = "https://" + normalized
	}

	return normalized, err
}

// ValidateURL checks that a normalized URL parses and has a usable host name.
func ValidateURL(normalized string) (err error) {
	var parsed *url.URL
	parsed, err = url.Parse(normalized)
	if err != nil {
		err = errors.Wrapf(ErrInvalidURL, "%s", err.Error())
		return err
	}

	host := parsed.Hostname()
	if host == "" {
		err = errors.Wrapf(ErrInvalidURL, "missing host in %q", normalized)
		return err
	}

	if net.ParseIP(host) != nil {
		return err
	}

	_, err = hostProfile.ToASCII(host)
	if err != nil {
		err = errors.Wrapf(ErrInvalidURL, "bad host %q: %s", host, err.Error())
		return err
	}

	return err
}
