package web

// Nav is one entry of the navigation bar.
type Nav struct {
	Href  string
	Label string
}

// NavLinks is the navigation bar shown on every page.
var NavLinks = []Nav{
	{Href: "/", Label: "Home"},
	{Href: "/analyze", Label: "Analyze"},
	{Href: "/login", Label: "Sign in"},
}

// Page is the data every template receives.
type Page struct {
	Title         string
	Active        string
	Authenticated bool
	Email         string
	Error         string
	Notice        string

	// Analyze page
	Result   string
	Accept   string
	MaxLabel string
	MaxBytes int64
	Busy     bool

	// Login and register forms
	FormEmail    string
	FormFullName string

	Status int
}

// Nav returns the navigation links.
func (p Page) Nav() []Nav {
	return NavLinks
}
