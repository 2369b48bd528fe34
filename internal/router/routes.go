// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Access tells whether a route needs a session.
type Access int

const (
	Public Access = iota
	Protected
)

func (a Access) String() string {
	if a == Protected {
		return "protected"
	}
	return "public"
}

// Well-known paths.
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	ForbiddenPath = "/forbidden"
	NotFoundPath  = "/not-found"
	DashboardPath = "/dashboard"
	HomePath      = "/dashboard/dashboard-home"
)

// Sections are the CRUD areas under /dashboard.
var Sections = []string{"customers", "phones", "repairs", "parts"}

// Page actions inside a section.
const (
	ActionList = "list"
	ActionNew  = "new"
	ActionEdit = "edit"
)

// Route is a resolved entry of the route table.
type Route struct {
	Path    string
	Access  Access
	Section string
	Action  string
	// ID is set for edit pages.
	ID string
}

// Title is the human-readable page name.
func (r Route) Title() string {
	switch {
	case r.Section == "":
		return titleCase(strings.TrimPrefix(r.Path, "/"))
	case r.Action == ActionNew:
		return "New " + singular(r.Section)
	case r.Action == ActionEdit:
		return "Edit " + singular(r.Section) + " #" + r.ID
	default:
		return titleCase(r.Section)
	}
}

// A Caser is stateful, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

func singular(section string) string {
	return titleCase(strings.TrimSuffix(section, "s"))
}

// match looks p up in the route table. p is clean and has no trailing slash.
func match(p string) (Route, bool) {
	switch p {
	case LoginPath, RegisterPath, ForbiddenPath, NotFoundPath:
		return Route{Path: p, Access: Public}, true
	case DashboardPath, HomePath:
		return Route{Path: p, Access: Protected, Section: "dashboard-home", Action: ActionList}, true
	}

	rest, ok := strings.CutPrefix(p, DashboardPath+"/")
	if !ok {
		return Route{}, false
	}
	parts := strings.Split(rest, "/")
	if !isSection(parts[0]) {
		return Route{}, false
	}

	r := Route{Path: p, Access: Protected, Section: parts[0]}
	switch {
	case len(parts) == 1:
		r.Action = ActionList
	case len(parts) == 2 && parts[1] == ActionNew:
		r.Action = ActionNew
	case len(parts) == 3 && parts[1] == ActionEdit && parts[2] != "":
		r.Action = ActionEdit
		r.ID = parts[2]
	default:
		return Route{}, false
	}
	return r, true
}

func isSection(s string) bool {
	for _, sec := range Sections {
		if sec == s {
			return true
		}
	}
	return false
}
