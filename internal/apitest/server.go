// Package apitest is an in-memory stand-in for the reports API, mounted
// behind the transport's Doer interface so pipeline tests run in-process
// without sockets.
package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-stationwatch/internal/features/report"
	"go-stationwatch/internal/features/stats"

	"github.com/gofiber/fiber/v2"
)

type Server struct {
	App *fiber.App

	mu      sync.Mutex
	reports []report.Report
	nextID  int
}

func NewServer() *Server {
	s := &Server{nextID: 1}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/reports/stats", s.handleStats)
	app.Get("/reports", s.handleList)
	app.Get("/reports/:id", s.handleGet)
	app.Patch("/reports/:id", s.handleUpdate)
	app.Post("/reports", s.handleCreate)
	app.Post("/auth/login", s.handleLogin)
	app.Post("/auth/register", s.handleLogin)

	s.App = app
	return s
}

// Do implements transport.Doer by running the request through the fiber app
// in-process.
func (s *Server) Do(req *http.Request) (*http.Response, error) {
	return s.App.Test(req, -1)
}

// Seed loads reports into the table, assigning ids where missing.
func (s *Server) Seed(reports ...report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reports {
		if r.ID == "" {
			r.ID = strconv.Itoa(s.nextID)
		}
		s.nextID++
		s.reports = append(s.reports, r)
	}
}

// Reports returns a copy of the current table.
func (s *Server) Reports() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Server) handleList(c *fiber.Ctx) error {
	status := c.Query("status")
	urgency := c.Query("urgency")
	city := c.Query("city")
	search := strings.ToLower(c.Query("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if status != "" && string(r.Status) != status {
			continue
		}
		if urgency != "" && string(r.UrgencyLevel) != urgency {
			continue
		}
		if city != "" && r.StationCity != city {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.StationName), search) &&
			!strings.Contains(strings.ToLower(r.StationCity), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		out = append(out, r)
	}
	return c.JSON(out)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	id := c.Params("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			return c.JSON(r)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not found"})
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	rep := report.Report{
		StationCity:   c.FormValue("station_city"),
		StationName:   c.FormValue("station_name"),
		IssueCategory: c.FormValue("issue_category"),
		Description:   c.FormValue("description"),
		UrgencyLevel:  report.Urgency(c.FormValue("urgency_level")),
		Status:        report.ReportStatus(c.FormValue("status")),
		CreatedBy:     c.FormValue("created_by"),
		CreatedDate:   time.Now().UTC().Format(time.RFC3339),
	}
	if rep.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description is required"})
	}
	if lat, err := strconv.ParseFloat(c.FormValue("latitude"), 64); err == nil {
		rep.Latitude = &lat
	}
	if lng, err := strconv.ParseFloat(c.FormValue("longitude"), 64); err == nil {
		rep.Longitude = &lng
	}

	s.mu.Lock()
	rep.ID = strconv.Itoa(s.nextID)
	s.nextID++
	if fh, err := c.FormFile("photo"); err == nil && fh != nil {
		rep.PhotoURL = fmt.Sprintf("/uploads/%s_%s", rep.ID, fh.Filename)
	}
	s.reports = append(s.reports, rep)
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(rep)
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	id := c.Params("id")
	var patch report.UpdatePatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID != id {
			continue
		}
		if patch.Status != nil {
			s.reports[i].Status = *patch.Status
		}
		return c.JSON(s.reports[i])
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not found"})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := stats.AggregateStats{
		Total:      len(s.reports),
		ByCategory: map[string]int{},
		ByUrgency:  map[string]int{},
		ByStatus:   map[string]int{},
		ByCity:     map[string]int{},
	}
	byStation := map[string]int{}
	for _, r := range s.reports {
		st.ByCategory[r.IssueCategory]++
		st.ByUrgency[string(r.UrgencyLevel)]++
		st.ByStatus[string(r.Status)]++
		st.ByCity[r.StationCity]++
		byStation[r.StationName]++
	}

	stations := make([]stats.StationCount, 0, len(byStation))
	for name, count := range byStation {
		stations = append(stations, stats.StationCount{Station: name, Count: count})
	}
	sort.Slice(stations, func(i, j int) bool {
		if stations[i].Count != stations[j].Count {
			return stations[i].Count > stations[j].Count
		}
		return stations[i].Station < stations[j].Station
	})
	if len(stations) > 5 {
		stations = stations[:5]
	}
	st.TopStations = stations

	return c.JSON(st)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"token": "stub-token"})
}
