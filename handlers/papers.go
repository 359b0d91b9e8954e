package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paper-birthdays/models"
	"paper-birthdays/services"
)

// paperView ergänzt ein Paper um Slug und Seitenpfad.
type paperView struct {
	models.Paper
	Slug string `json:"slug"`
	Path string `json:"path"`
}

func viewsFor(papers []models.Paper, dateToken string) []paperView {
	out := make([]paperView, 0, len(papers))
	for _, p := range papers {
		out = append(out, viewFor(p, dateToken))
	}
	return out
}

func viewFor(p models.Paper, dateToken string) paperView {
	v := paperView{Paper: p, Slug: services.PaperSlug(p, services.DefaultSlugWords)}
	if dateToken != "" {
		v.Path = services.PaperURL(p, dateToken)
	}
	return v
}

// optionalInt liest einen optionalen ganzzahligen Query-Parameter.
func optionalInt(c *gin.Context, name string) (*int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, services.ErrInvalidFilter
	}
	return &v, nil
}

// criteriaFromQuery liest field, min_/max_citations, min_/max_year und min_/max_authors.
func criteriaFromQuery(c *gin.Context) (services.Criteria, error) {
	crit := services.Criteria{Field: c.Query("field")}
	targets := []struct {
		name string
		dst  **int
	}{
		{"min_citations", &crit.MinCitations},
		{"max_citations", &crit.MaxCitations},
		{"min_year", &crit.MinYear},
		{"max_year", &crit.MaxYear},
		{"min_authors", &crit.MinAuthors},
		{"max_authors", &crit.MaxAuthors},
	}
	for _, t := range targets {
		v, err := optionalInt(c, t.name)
		if err != nil {
			return services.Criteria{}, err
		}
		*t.dst = v
	}
	return crit, nil
}

func setupPaperRoutes(router *gin.Engine, h *Handler) {
	rg := router.Group("/api")

	// dayResponse filtert und sortiert die Paper eines Tages nach den Query-Parametern.
	dayResponse := func(c *gin.Context, tok services.DateToken, papers []models.Paper) {
		crit, err := criteriaFromQuery(c)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		key, order, err := services.ParseSort(c.Query("sort"), c.Query("order"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		filtered := services.SortPapers(services.FilterPapers(papers, crit), key, order)
		c.JSON(http.StatusOK, gin.H{
			"date":         tok.String(),
			"month_day":    tok.MonthDay(),
			"display_date": services.DisplayDate(tok.MonthDay()),
			"total_papers": len(papers),
			"count":        len(filtered),
			"papers":       viewsFor(filtered, tok.String()),
		})
	}

	rg.GET("/papers/today", func(c *gin.Context) {
		tok, papers, err := h.Papers.PapersForToken(c.Request.Context(), h.Papers.Today().String())
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		dayResponse(c, tok, papers)
	})

	rg.GET("/papers/:date", func(c *gin.Context) {
		tok, papers, err := h.Papers.PapersForToken(c.Request.Context(), c.Param("date"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		dayResponse(c, tok, papers)
	})

	rg.GET("/papers/:date/random", func(c *gin.Context) {
		tok, err := services.ParseDateToken(c.Param("date"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		p, err := h.Papers.RandomPaper(c.Request.Context(), tok.MonthDay(), c.Query("exclude"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, viewFor(p, tok.String()))
	})

	rg.GET("/papers/:date/:slug", func(c *gin.Context) {
		p, err := h.Papers.PaperBySlug(c.Request.Context(), c.Param("date"), c.Param("slug"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, viewFor(p, c.Param("date")))
	})

	rg.GET("/fields/:field", func(c *gin.Context) {
		tok := h.Papers.Today()
		if raw := c.Query("date"); raw != "" {
			var err error
			if tok, err = services.ParseDateToken(raw); err != nil {
				respondError(c, h.Logger, err)
				return
			}
		}
		papers, available, err := h.Papers.PapersForField(c.Request.Context(), tok.MonthDay(), c.Param("field"))
		if errors.Is(err, services.ErrNoPapers) && len(available) > 0 {
			// Der Tag hat Paper, nur nicht in dieser Kategorie.
			c.JSON(statusFor(services.KindOf(err)), gin.H{
				"error":            services.PublicMessage(err),
				"available_fields": available,
			})
			return
		}
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"date":             tok.String(),
			"field":            papers[0].Field,
			"available_fields": available,
			"count":            len(papers),
			"papers":           viewsFor(papers, tok.String()),
		})
	})

	rg.GET("/search-papers", func(c *gin.Context) {
		papers, err := h.Papers.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		views := make([]paperView, 0, len(papers))
		for _, p := range papers {
			token := ""
			if p.PublicationMonthDay != nil {
				if tok, err := services.ParseMonthDay(*p.PublicationMonthDay); err == nil {
					token = tok.String()
				}
			}
			views = append(views, viewFor(p, token))
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "papers": views, "count": len(views)})
	})

	rg.GET("/stats", func(c *gin.Context) {
		stats, err := h.Papers.Stats(c.Request.Context())
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats, "categories": services.Categories()})
	})
}
