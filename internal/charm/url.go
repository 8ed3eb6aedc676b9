// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// URL identifies a charm in a store, e.g. "cs:~containers/myapp-3" or
// "myapp". A Revision of -1 means the URL carries no revision.
type URL struct {
	Schema   string
	User     string
	Name     string
	Revision int
}

// ParseURL parses a charm URL of the form
// [schema:][~user/]name[-revision].
func ParseURL(s string) (*URL, error) {
	if s == "" {
		return nil, errors.NotValidf("empty charm URL")
	}
	u := &URL{Revision: -1}

	rest := s
	if i := strings.Index(rest, ":"); i >= 0 {
		u.Schema = rest[:i]
		rest = rest[i+1:]
	}
	if strings.HasPrefix(rest, "~") {
		i := strings.Index(rest, "/")
		if i < 0 {
			return nil, errors.NotValidf("charm URL %q without name", s)
		}
		u.User = rest[1:i]
		rest = rest[i+1:]
	}
	if strings.Contains(rest, "/") {
		return nil, errors.NotValidf("charm URL %q", s)
	}

	u.Name = rest
	if i := strings.LastIndex(rest, "-"); i >= 0 {
		if revision, err := strconv.Atoi(rest[i+1:]); err == nil {
			u.Name = rest[:i]
			u.Revision = revision
		}
	}
	if u.Name == "" {
		return nil, errors.NotValidf("charm URL %q without name", s)
	}
	return u, nil
}

// WithRevision returns a copy of the URL with the given revision.
func (u *URL) WithRevision(revision int) *URL {
	copied := *u
	copied.Revision = revision
	return &copied
}

// String implements fmt.Stringer.
func (u *URL) String() string {
	var b strings.Builder
	if u.Schema != "" {
		b.WriteString(u.Schema)
		b.WriteString(":")
	}
	if u.User != "" {
		b.WriteString("~")
		b.WriteString(u.User)
		b.WriteString("/")
	}
	b.WriteString(u.Name)
	if u.Revision >= 0 {
		b.WriteString("-")
		b.WriteString(strconv.Itoa(u.Revision))
	}
	return b.String()
}
