package model

import (
	"strings"

	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// SubjectPrefix is the subject namespace captured by the dispatch
// stream. Routes pointing outside it would publish into the void.
const SubjectPrefix = "dispatch."

// Route maps a runner label to a dispatch queue subject
type Route struct {
	Label   string
	Subject string
}

// RouteTable selects a dispatch subject from workflow job labels. The
// table is an explicit ordered list: entries are consulted in order and
// the first entry whose label appears in the job's label set wins.
type RouteTable struct {
	routes         []Route
	defaultSubject string
}

// NewRouteTable creates a route table with the given ordered routes and
// the subject used when no route matches.
func NewRouteTable(routes []Route, defaultSubject string) *RouteTable {
	return &RouteTable{
		routes:         routes,
		defaultSubject: defaultSubject,
	}
}

// ParseRoutes parses "label=subject" entries into an ordered route list
func ParseRoutes(entries []string) ([]Route, error) {
	routes := make([]Route, 0, len(entries))
	for _, entry := range entries {
		label, subject, ok := strings.Cut(entry, "=")
		if !ok || label == "" || subject == "" {
			return nil, goerr.New("invalid route entry, expected label=subject",
				goerr.T(types.ErrTagInvalidInput),
				goerr.V("entry", entry),
			)
		}
		if err := ValidateSubject(subject); err != nil {
			return nil, err
		}
		routes = append(routes, Route{Label: label, Subject: subject})
	}
	return routes, nil
}

// ValidateSubject checks that a subject falls under the dispatch stream
func ValidateSubject(subject string) error {
	if !strings.HasPrefix(subject, SubjectPrefix) || subject == SubjectPrefix {
		return goerr.New("subject is outside the dispatch stream",
			goerr.T(types.ErrTagInvalidInput),
			goerr.V("subject", subject),
			goerr.V("prefix", SubjectPrefix),
		)
	}
	return nil
}

// Resolve returns the subject of the first route whose label is present
// in labels, and that route's label. If no route matches, it returns the
// default subject and an empty label.
func (t *RouteTable) Resolve(labels []string) (subject, label string) {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}

	for _, r := range t.routes {
		if set[r.Label] {
			return r.Subject, r.Label
		}
	}

	return t.defaultSubject, ""
}

// DefaultSubject returns the subject used when no route matches
func (t *RouteTable) DefaultSubject() string {
	return t.defaultSubject
}
