package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/serviceutil"
	"github.com/clessn/scrapessn/services/dataset"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// StartApi serves the read side of the dataset over http. It blocks
// until ctx is cancelled, then drains in-flight requests.
func StartApi(ctx context.Context, cfg ApiConfig, svc dataset.Service, trigger func() bool) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := e.Group("/api")
	api.GET("/items", handleItems(svc))
	api.GET("/items/:id/related", handleRelated(svc))
	api.GET("/search", handleSearch(svc))
	api.GET("/runs", handleRuns(svc))
	api.GET("/stats", handleStats(svc))
	api.GET("/export", handleExport(svc))
	api.POST("/crawl", handleCrawl(trigger))

	port := cfg.Port
	if port == 0 {
		port = 8111
	}

	go func() {
		slog.Info("listening for http...", "port", port)
		err := e.Start(fmt.Sprintf(":%d", port))
		if err != nil && err != http.ErrServerClosed {
			serviceutil.Fatal(fmt.Sprintf("failed to listen on port %d", port), err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown http server", "err", err)
	}
}

type itemJson struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	SourceRef string `json:"source_ref"`
}

type relatedJson struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	Closeness *float64 `json:"closeness"`
}

type runJson struct {
	Id         string `json:"id"`
	Origin     string `json:"origin"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Subjects   int64  `json:"subjects"`
	Failures   int64  `json:"failures"`
}

// unknown closeness is null, the csv export spells the same thing "NA"
func scoreJson(s closeness.Score) *float64 {
	if !s.Known {
		return nil
	}
	v := s.Value
	return &v
}

func handleItems(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := svc.Items(c.Request().Context())
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		out := make([]itemJson, len(items))
		for i, item := range items {
			out[i] = itemJson{Id: item.Id, Name: item.Name, SourceRef: item.SourceRef}
		}
		return c.JSON(http.StatusOK, out)
	}
}

func handleRelated(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		item, err := svc.FindItem(ctx, c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		related, err := svc.Related(ctx, item.Id)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		out := make([]relatedJson, len(related))
		for i, r := range related {
			out[i] = relatedJson{Id: r.Id, Name: r.Name, Closeness: scoreJson(r.Closeness)}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"item":    itemJson{Id: item.Id, Name: item.Name, SourceRef: item.SourceRef},
			"related": out,
		})
	}
}

func handleSearch(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParam("q")
		if query == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing query parameter 'q'"})
		}

		item, err := svc.FindItem(c.Request().Context(), query)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, itemJson{Id: item.Id, Name: item.Name, SourceRef: item.SourceRef})
	}
}

func handleRuns(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		runs, err := svc.Runs(c.Request().Context())
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		out := make([]runJson, len(runs))
		for i, r := range runs {
			out[i] = runJson{
				Id:        r.Id,
				Origin:    r.Origin,
				StartedAt: r.StartedAt.Format(time.RFC3339),
				Subjects:  r.Subjects,
				Failures:  r.Failures,
			}
			if !r.FinishedAt.IsZero() {
				out[i].FinishedAt = r.FinishedAt.Format(time.RFC3339)
			}
		}
		return c.JSON(http.StatusOK, out)
	}
}

func handleStats(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.Stats(c.Request().Context())
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]int64{
			"items": stats.Items,
			"edges": stats.Edges,
		})
	}
}

func handleExport(svc dataset.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		tbl, err := svc.Table(c.Request().Context())
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().WriteHeader(http.StatusOK)
		return closeness.WriteCsv(c.Response(), tbl)
	}
}

func handleCrawl(trigger func() bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !trigger() {
			return c.JSON(http.StatusConflict, map[string]string{"error": "a crawl is already running"})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"status": "crawl started"})
	}
}
