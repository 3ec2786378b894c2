package web

import "strings"

// NavItem is one entry of the sidebar.
type NavItem struct {
	Label string
	Path  string
}

// NavLink is a NavItem as rendered for the current location.
type NavLink struct {
	NavItem
	Active bool
}

// Nav is the sidebar, in display order.
var Nav = []NavItem{
	{Label: "Hero", Path: "/dashboard/hero"},
	{Label: "About", Path: "/dashboard/about"},
	{Label: "Testimonials", Path: "/dashboard/testimonials"},
	{Label: "Projects", Path: "/dashboard/projects"},
}

// Active marks the entry whose path prefixes current. A prefix only counts at a path
// segment boundary, so /dashboard/about does not match /dashboard/aboutx.
func Active(current string) []NavLink {
	links := make([]NavLink, len(Nav))
	for i, item := range Nav {
		links[i] = NavLink{NavItem: item, Active: hasPathPrefix(current, item.Path)}
	}
	return links
}

func hasPathPrefix(current, prefix string) bool {
	if !strings.HasPrefix(current, prefix) {
		return false
	}
	rest := current[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}
