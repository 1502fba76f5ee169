package suggest

// fallbackDirectories is the static suggestion set used whenever the
// generator cannot answer. Grouped by the kind of site section the
// names usually map to.
var fallbackDirectories = []string{
	// Company and informational sections.
	"/about/", "/company/", "/team/", "/staff/", "/leadership/",
	"/contact/", "/mission/", "/overview/", "/info/", "/information/",

	// Content sections.
	"/blog/", "/news/", "/articles/", "/posts/", "/press/",
	"/archive/", "/newsletter/", "/journal/", "/magazine/", "/updates/",

	// Product and service sections.
	"/products/", "/services/", "/solutions/", "/offerings/",
	"/portfolio/", "/catalog/", "/plans/", "/pricing/",

	// Documentation and support.
	"/docs/", "/documentation/", "/documents/", "/support/", "/help/",
	"/faq/", "/resources/", "/downloads/", "/library/", "/manuals/",
	"/tools/", "/research/", "/reports/",

	// Navigation and structure.
	"/search/", "/sitemap/", "/directory/", "/categories/", "/topics/",
	"/pages/", "/sections/", "/browse/", "/index/",

	// Administrative surfaces.
	"/admin/", "/dashboard/", "/portal/", "/console/", "/manage/",
	"/settings/", "/profile/",
}

// FallbackDirectories returns a copy of the static directory suggestion
// list.
func FallbackDirectories() []string {
	out := make([]string, len(fallbackDirectories))
	copy(out, fallbackDirectories)
	return out
}
