// Package tableparse turns an HTML table into a column-major matrix of cell
// markup, the shape the stats and monitoring parsers consume.
//
// Cells keep their inner HTML. Spanned cells are duplicated into every slot
// they cover, so every column of a matrix has one entry per table row
package tableparse

import (
	"io"
	"slices"
	"strconv"
	"strings"

	perr "queststat/internal/platform/errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selector picks a table from a page. ID and Class match the table element;
// Within restricts the search to descendants of the first element with that
// tag name. Last takes the last match in document order instead of the first
type Selector struct {
	ID     string
	Class  string
	Within string
	Last   bool
}

// Page tables
var (
	GameInfo   = Selector{Class: "gameInfo"}
	Results    = Selector{Class: "DataTable"}
	Monitoring = Selector{Within: "form", Last: true}
)

// Parse reads a page and returns the matrix of the selected table
func Parse(r io.Reader, sel Selector) ([][]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, perr.WithOp(perr.Wrap(err, perr.ErrorCodeParse, "parse html"), "tableparse.Parse")
	}
	t := Find(doc, sel)
	if t == nil {
		return nil, perr.WithOp(perr.NotFoundf("no table matches %+v", sel), "tableparse.Parse")
	}
	return Matrix(t), nil
}

// ParseString is Parse over a string
func ParseString(page string, sel Selector) ([][]string, error) {
	return Parse(strings.NewReader(page), sel)
}

// Trim drops the first and last columns of a results matrix (team ranking
// and summary columns that carry no level data)
func Trim(matrix [][]string) [][]string {
	if len(matrix) < 2 {
		return nil
	}
	return matrix[1 : len(matrix)-1]
}

// Find returns the table selected by sel, nil if none matches
func Find(doc *html.Node, sel Selector) *html.Node {
	root := doc
	if sel.Within != "" {
		root = first(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == sel.Within })
		if root == nil {
			return nil
		}
	}
	var found *html.Node
	for n := range root.Descendants() {
		if n.DataAtom != atom.Table || !matches(n, sel) {
			continue
		}
		found = n
		if !sel.Last {
			break
		}
	}
	return found
}

func matches(n *html.Node, sel Selector) bool {
	if sel.ID != "" && attr(n, "id") != sel.ID {
		return false
	}
	if sel.Class != "" && !slices.Contains(strings.Fields(attr(n, "class")), sel.Class) {
		return false
	}
	return true
}

func first(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for d := range n.Descendants() {
		if pred(d) {
			return d
		}
	}
	return nil
}

// Matrix lays table out as matrix[column][row]. Rows of nested tables are
// not part of the table
func Matrix(table *html.Node) [][]string {
	rows := tableRows(table)
	grid := make([][]string, len(rows))
	filled := make([][]bool, len(rows))
	width := 0

	set := func(r, c int, v string) {
		for len(grid[r]) <= c {
			grid[r] = append(grid[r], "")
			filled[r] = append(filled[r], false)
		}
		grid[r][c] = v
		filled[r][c] = true
		width = max(width, c+1)
	}

	for r, tr := range rows {
		c := 0
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.DataAtom != atom.Td && td.DataAtom != atom.Th {
				continue
			}
			for c < len(filled[r]) && filled[r][c] {
				c++
			}
			content := inner(td)
			cs, rs := span(td, "colspan"), span(td, "rowspan")
			for i := 0; i < rs && r+i < len(rows); i++ {
				for j := 0; j < cs; j++ {
					set(r+i, c+j, content)
				}
			}
			c += cs
		}
	}

	out := make([][]string, width)
	for c := range out {
		out[c] = make([]string, len(rows))
		for r := range rows {
			if c < len(grid[r]) {
				out[c][r] = grid[r][c]
			}
		}
	}
	return out
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Thead, atom.Tbody, atom.Tfoot:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func inner(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return strings.TrimSpace(b.String())
}

func span(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(attr(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
