package controllers

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lakebase_dashboards/services/dashboard"
	"lakebase_dashboards/services/render"
)

// DashboardController serves the dashboard pages, updates and exports
type DashboardController struct {
	registry *dashboard.Registry
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(registry *dashboard.Registry) *DashboardController {
	return &DashboardController{registry: registry}
}

type tickInfo struct {
	Name     string `json:"name"`
	Interval int64  `json:"interval"`
}

func ticksOf(d dashboard.Dashboard) []tickInfo {
	var out []tickInfo
	for _, t := range d.Ticks() {
		out = append(out, tickInfo{Name: t.Name, Interval: t.Interval.Milliseconds()})
	}
	return out
}

// ListDashboards returns the enabled dashboards
// GET /api/v1/dashboards
func (dc *DashboardController) ListDashboards(c *gin.Context) {
	var data []gin.H
	for _, d := range dc.registry.All() {
		data = append(data, gin.H{
			"id":       d.ID(),
			"title":    d.Title(),
			"regional": d.Regional(),
			"ticks":    ticksOf(d),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// GetUpdate builds one tick on demand, used on page load and when the
// websocket is unavailable
// GET /api/v1/dashboards/:id/updates/:tick?region=
func (dc *DashboardController) GetUpdate(c *gin.Context) {
	d, ok := dc.lookup(c)
	if !ok {
		return
	}
	body, err := d.Build(c.Request.Context(), c.Param("tick"), c.Query("region"))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownTick) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error building %s update: %v", d.ID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build update"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetFigure exports a single chart as Plotly JSON or as a PNG image
// GET /api/v1/dashboards/:id/figures/:figure.png?region=&width=&height=
// GET /api/v1/dashboards/:id/figures/:figure.json?region=
func (dc *DashboardController) GetFigure(c *gin.Context) {
	d, ok := dc.lookup(c)
	if !ok {
		return
	}

	name := c.Param("figure")
	format := "json"
	switch {
	case strings.HasSuffix(name, ".png"):
		name, format = strings.TrimSuffix(name, ".png"), "png"
	case strings.HasSuffix(name, ".json"):
		name = strings.TrimSuffix(name, ".json")
	}

	fig, err := d.Figure(c.Request.Context(), name, c.Query("region"))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownFigure) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build figure"})
		return
	}

	if format == "json" {
		body, err := fig.JSON()
		if err != nil {
			log.Printf("Error encoding %s/%s: %v", d.ID(), name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode figure"})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	width, _ := strconv.Atoi(c.DefaultQuery("width", "0"))
	height, _ := strconv.Atoi(c.DefaultQuery("height", "0"))
	var buf bytes.Buffer
	if err := render.PNG(fig, render.Size{Width: width, Height: height}, &buf); err != nil {
		switch {
		case errors.Is(err, render.ErrNoData):
			c.JSON(http.StatusNotFound, gin.H{"error": "No data available"})
		case errors.Is(err, render.ErrUnsupported):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Printf("Error rendering %s/%s: %v", d.ID(), name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render figure"})
		}
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Index lists the dashboards
// GET /
func (dc *DashboardController) Index(c *gin.Context) {
	var list []gin.H
	for _, d := range dc.registry.All() {
		list = append(list, gin.H{"ID": d.ID(), "Title": d.Title()})
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Dashboards": list})
}

// Page renders one dashboard
// GET /dashboards/:id
func (dc *DashboardController) Page(c *gin.Context) {
	d, ok := dc.lookup(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, d.ID()+".html", gin.H{
		"ID":      d.ID(),
		"Title":   d.Title(),
		"Ticks":   ticksOf(d),
		"Regions": d.Regional(),
		"KPIs":    d.EmptyCards(),
	})
}

func (dc *DashboardController) lookup(c *gin.Context) (dashboard.Dashboard, bool) {
	d, err := dc.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dashboard not found"})
		return nil, false
	}
	return d, true
}
