package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"

	"riceMarketplace/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"index", "login", "register", "sell_rice", "product_details", "profile", "payment_page", "error"}

// page is the view model every template receives.
type page struct {
	Title   string
	Account *models.Farmer
	Flashes []flash
	// Form echoes submitted values back into a re-rendered form.
	Form   map[string]string
	Errors map[string]string
	Data   any
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{
		"uploadURL": func(name string) string { return "/static/uploads/" + url.PathEscape(name) },
		"money":     func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer. A *page gets the current account and pending flashes filled in.
func (r *renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	if p, ok := data.(*page); ok && c != nil {
		p.Account = currentAccount(c)
		p.Flashes = consumeFlashes(c)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
