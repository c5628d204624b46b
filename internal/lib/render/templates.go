package render

// Template is a string-based enum naming page templates.
type Template string

const (
	// TemplateHome corresponds to templates/pages/home.html
	TemplateHome Template = "home"
	// TemplateSearch is the search form, optionally followed by a result table.
	TemplateSearch    Template = "search"
	TemplateDownloads Template = "downloads"
	TemplateError     Template = "error"

	// Informational pages.
	TemplateGuide          Template = "guide"
	TemplateFAQ            Template = "faq"
	TemplateResources      Template = "resources"
	TemplateAboutUs        Template = "aboutus"
	TemplateVisualizations Template = "visualizations"
	TemplateGithub         Template = "github"
	TemplateContactUs      Template = "contactus"
	TemplateCitation       Template = "citation"

	// TemplateResults is the bare result table returned to AJAX searches.
	// It is the only template rendered without the layout.
	TemplateResults Template = "results_fragment"
)

// pages are rendered inside layout.html.
var pages = []Template{
	TemplateHome,
	TemplateSearch,
	TemplateDownloads,
	TemplateError,
	TemplateGuide,
	TemplateFAQ,
	TemplateResources,
	TemplateAboutUs,
	TemplateVisualizations,
	TemplateGithub,
	TemplateContactUs,
	TemplateCitation,
}

// InfoPages maps the informational routes to their templates.
var InfoPages = map[string]Template{
	"/guide":          TemplateGuide,
	"/faq":            TemplateFAQ,
	"/resources":      TemplateResources,
	"/aboutus":        TemplateAboutUs,
	"/visualizations": TemplateVisualizations,
	"/github":         TemplateGithub,
	"/contactus":      TemplateContactUs,
	"/citation":       TemplateCitation,
}
