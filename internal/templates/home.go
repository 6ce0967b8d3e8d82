package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
)

// HomeData is everything the dashboard shows
type HomeData struct {
	Name        string
	Version     string
	Collections []service.CollectionMetrics
	Recent      []model.ContentItem
	HasData     bool
}

// Home renders the dashboard page
func Home(data HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := layoutStart(w, data.Name); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "<header><h1>%s</h1><p class=\"version\">%s</p></header>",
			templ.EscapeString(data.Name), templ.EscapeString(data.Version)); err != nil {
			return err
		}

		if !data.HasData {
			if _, err := io.WriteString(w, "<p class=\"empty\">No content yet. Create an entry from the editor.</p>"); err != nil {
				return err
			}
			return layoutEnd(w)
		}

		if err := collectionTable(w, data.Collections); err != nil {
			return err
		}
		if err := recentList(w, data.Recent); err != nil {
			return err
		}
		return layoutEnd(w)
	})
}

func layoutStart(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`+
		`<style>body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:56rem;color:#1f2933}`+
		`table{border-collapse:collapse;width:100%%}td,th{border-bottom:1px solid #e4e7eb;padding:.4rem;text-align:left}`+
		`.draft{color:#b44d12;font-size:.8rem;margin-left:.5rem}.version,.date{color:#7b8794}</style></head><body>`,
		templ.EscapeString(title))
	return err
}

func layoutEnd(w io.Writer) error {
	_, err := io.WriteString(w, "</body></html>")
	return err
}

func collectionTable(w io.Writer, collections []service.CollectionMetrics) error {
	if _, err := io.WriteString(w, "<section><h2>Collections</h2><table><thead><tr>"+
		"<th>Collection</th><th>Total</th><th>Published</th><th>Drafts</th><th>Pro</th><th>Featured</th>"+
		"</tr></thead><tbody>"); err != nil {
		return err
	}
	for _, c := range collections {
		if _, err := fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			templ.EscapeString(string(c.Collection)), c.Total, c.Published, c.Drafts, c.Pro, c.Featured); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</tbody></table></section>")
	return err
}

func recentList(w io.Writer, items []model.ContentItem) error {
	if _, err := io.WriteString(w, "<section><h2>Recent entries</h2><ul>"); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "<li><strong>%s</strong> <span class=\"date\">%s &middot; %s</span>",
			templ.EscapeString(item.Title),
			templ.EscapeString(string(item.Collection)),
			templ.EscapeString(item.Date)); err != nil {
			return err
		}
		if !item.Published {
			if _, err := io.WriteString(w, "<span class=\"draft\">draft</span>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</li>"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</ul></section>")
	return err
}
