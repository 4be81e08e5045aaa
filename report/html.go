package report

import (
	"bytes"
	"context"
	"html/template"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!doctype html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}} {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 11px; color: #111827; margin: 0; }
.band { background: #0B2239; color: #fff; text-align: center; padding: 10px; font-weight: 800; border-radius: 6px; }
.head { display: flex; justify-content: space-between; align-items: baseline; margin: 16px 0 8px; }
.head h1 { font-size: 20px; margin: 0; }
h2 { background: #EEF3FA; font-size: 12px; padding: 4px 6px; margin: 12px 0 4px; }
dl { display: grid; grid-template-columns: 35% 65%; margin: 0; }
dt { font-weight: bold; } dd { margin: 0 0 2px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th { background: #0B2239; color: #fff; padding: 4px; font-size: 10px; }
td { border: 1px solid #d1d5db; padding: 3px 4px; font-size: 10px; }
td.R { text-align: right; }
.totals { width: 45%; margin-left: auto; margin-top: 8px; }
.totals tr:last-child td { font-weight: bold; }
.notes { font-style: italic; font-size: 10px; margin-top: 12px; }
</style>
</head>
<body>
<div class="band">{{.Company}}</div>
<div class="head"><h1>{{.Title}}</h1><div>N° {{.Number}}{{if .Date}}<br>Date : {{.Date}}{{end}}</div></div>
{{range .Sections}}{{if .Fields}}<h2>{{.Title}}</h2><dl>{{range .Fields}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>{{end}}</dl>{{end}}{{end}}
{{with .Table}}<table><thead><tr>{{range .Columns}}<th style="width:{{.Percent}}%">{{.Header}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td class="{{.Align}}">{{.Text}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}
{{if .Totals}}<table class="totals">{{range .Totals}}<tr><td>{{.Label}}</td><td class="R">{{.Value}}</td></tr>{{end}}</table>{{end}}
{{if .Notes}}<div class="notes">{{range .Notes}}<p>{{.}}</p>{{end}}</div>{{end}}
</body>
</html>`))

type htmlColumn struct {
	Header  string
	Percent int
}

type htmlCell struct {
	Text  string
	Align string
}

type htmlTable struct {
	Columns []htmlColumn
	Rows    [][]htmlCell
}

type htmlView struct {
	Company  string
	Title    string
	Number   string
	Date     string
	Sections []Section
	Table    *htmlTable
	Totals   []Field
	Notes    []string
}

// HTML renders doc as a standalone HTML page.
func HTML(doc Document) (string, error) {
	view := htmlView{
		Company:  CompanyName,
		Title:    doc.Title,
		Number:   doc.Number,
		Sections: append([]Section{doc.Party}, doc.Sections...),
		Totals:   doc.Totals,
		Notes:    doc.Notes,
	}
	if !doc.Date.IsZero() {
		view.Date = doc.Date.Format("02/01/2006")
	}
	if doc.Table != nil {
		t := &htmlTable{}
		for _, c := range doc.Table.Columns {
			t.Columns = append(t.Columns, htmlColumn{Header: c.Header, Percent: int(c.Width*100 + 0.5)})
		}
		for _, row := range doc.Table.Rows {
			cells := make([]htmlCell, 0, len(row))
			for i, text := range row {
				align := ""
				if i < len(doc.Table.Columns) {
					align = doc.Table.Columns[i].Align
				}
				cells = append(cells, htmlCell{Text: text, Align: align})
			}
			t.Rows = append(t.Rows, cells)
		}
		view.Table = t
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GotenbergRenderer renders documents through a Gotenberg instance.
type GotenbergRenderer struct {
	client *Client
}

// NewGotenbergRenderer wraps a Gotenberg client.
func NewGotenbergRenderer(client *Client) *GotenbergRenderer {
	return &GotenbergRenderer{client: client}
}

// Render converts doc to HTML and has Gotenberg print it.
func (r *GotenbergRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := HTML(doc)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}
