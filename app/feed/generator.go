package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// Generator re-publishes aggregated posts as a single RSS 2.0 document.
type Generator struct {
	siteLink string
	selfLink string
	version  string
}

// NewGenerator builds a generator for the reader served at siteLink. The
// document links back to siteLink and names siteLink/rss as its own address.
func NewGenerator(siteLink, version string) *Generator {
	siteLink = strings.TrimRight(siteLink, "/")

	g := &Generator{
		siteLink: siteLink,
		version:  version,
	}
	if siteLink != "" {
		g.selfLink = siteLink + "/rss"
	}
	return g
}

func (g *Generator) Run(channel Metadata, items []Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(channel.Title, "RSS Reader"), 4)
	g.writeElement(&buf, "link", g.siteLink, 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, "Aggregated posts from tracked feeds"), 4)

	if g.selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(g.selfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 && !items[0].PublishedAt.IsZero() {
		lastBuildDate = items[0].PublishedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Reader/%s", cmp.Or(g.version, "dev")), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	g.writeElement(buf, "description", cmp.Or(item.Description, "No description available"), 6)

	if item.Content != "" && item.Content != item.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(item.Content)
		buf.WriteString("]]></content:encoded>\n")
	}

	if !item.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
	}

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
