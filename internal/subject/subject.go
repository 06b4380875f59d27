// Package subject parses the GitHub identifier a recommendation is written for.
package subject

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalid = errors.New("invalid subject identifier")

var handleRe = regexp.MustCompile(`^[A-Za-z0-9](-?[A-Za-z0-9]){0,38}$`)

var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
}

// Subject is either a bare handle (Name empty) or an owner/name pair.
type Subject struct {
	Owner string
	Name  string
}

func (s Subject) String() string {
	if s.Name == "" {
		return s.Owner
	}
	return s.Owner + "/" + s.Name
}

func (s Subject) IsPair() bool { return s.Name != "" }

// ValidHandle reports whether h matches the handle grammar.
func ValidHandle(h string) bool {
	return handleRe.MatchString(h)
}

// Parse accepts "handle", "owner/name", or a github.com URL, which is
// normalized to its owner/name pair.
func Parse(raw string) (Subject, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Subject{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if strings.Contains(s, "://") {
		return parseURL(s)
	}
	return parsePath(s, raw)
}

func parsePath(s, raw string) (Subject, error) {
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 1:
		if !ValidHandle(parts[0]) {
			return Subject{}, fmt.Errorf("%w: %q", ErrInvalid, raw)
		}
		return Subject{Owner: parts[0]}, nil
	case 2:
		if !ValidHandle(parts[0]) || !ValidHandle(parts[1]) {
			return Subject{}, fmt.Errorf("%w: %q", ErrInvalid, raw)
		}
		return Subject{Owner: parts[0], Name: parts[1]}, nil
	default:
		return Subject{}, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
}

func parseURL(s string) (Subject, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Subject{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalid, u.Scheme)
	}
	if !githubHosts[strings.ToLower(u.Hostname())] {
		return Subject{}, fmt.Errorf("%w: unsupported host %q", ErrInvalid, u.Host)
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return Subject{}, fmt.Errorf("%w: missing owner", ErrInvalid)
	}
	segs := strings.Split(path, "/")
	if len(segs) > 2 {
		segs = segs[:2]
	}
	if len(segs) == 2 {
		segs[1] = strings.TrimSuffix(segs[1], ".git")
	}
	return parsePath(strings.Join(segs, "/"), s)
}
