package blogfront

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, posts []domain.BlogPost) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base)},
	}
	for _, p := range posts {
		mod := p.CreatedAt
		if p.IsUpdated() {
			mod = p.UpdatedAt
		}
		lastMod := ""
		if !mod.IsZero() {
			lastMod = mod.Time.UTC().Format("2006-01-02")
		}
		urls = append(urls, sitemapURL{
			Loc:     views.BuildURL(base, "post", strconv.FormatInt(p.ID, 10)),
			LastMod: lastMod,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
