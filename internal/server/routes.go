package server

import (
	"net/http"

	"github.com/ternarybob/neighborhood/internal/handlers"
)

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Service info
	mux.HandleFunc("/", s.app.APIHandler.RootHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/ollama/models", s.app.APIHandler.OllamaModelsHandler)
	mux.HandleFunc("/api/models/", s.app.APIHandler.ProviderModelsHandler)

	// Projects
	mux.HandleFunc("/api/projects", s.handleProjectsRoute)
	mux.HandleFunc(handlers.ProjectsPrefix, s.handleProjectRoutes)
	mux.HandleFunc("/api/sources/validate", s.app.DiscoveryHandler.ValidateSourceHandler)

	// Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)

	// Jobs
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.GetJobHandler)
	mux.HandleFunc("/api/admin/jobs", s.app.JobHandler.ListJobsHandler)

	// Scheduler
	mux.HandleFunc("/api/scheduler/trigger", s.app.SchedulerHandler.TriggerSyncHandler)
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.StatusHandler)

	// WebSocket job progress
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	return mux
}

// handleProjectsRoute routes GET (list) and POST (create) for /api/projects
func (s *Server) handleProjectsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.ProjectHandler.ListProjectsHandler,
		s.app.ProjectHandler.CreateProjectHandler,
	)
}

// handleProjectRoutes dispatches everything below /api/projects/{id}
func (s *Server) handleProjectRoutes(w http.ResponseWriter, r *http.Request) {
	parts := handlers.PathSegments(r.URL.Path, handlers.ProjectsPrefix)
	ph := s.app.ProjectHandler
	dh := s.app.DiscoveryHandler

	switch len(parts) {
	case 0:
		s.handleProjectsRoute(w, r)
		return
	case 1:
		RouteResourceItem(w, r, ph.GetProjectHandler, ph.UpdateProjectHandler, ph.DeleteProjectHandler)
		return
	case 2:
		switch parts[1] {
		case "sources":
			ph.AddSourceHandler(w, r)
		case "upload-pdf":
			ph.UploadPDFHandler(w, r)
		case "stats":
			ph.StatsHandler(w, r)
		case "health":
			ph.HealthHandler(w, r)
		case "documents":
			ph.DocumentsHandler(w, r)
		case "config":
			RouteByMethod(w, r, MethodRouter{
				http.MethodGet: ph.GetConfigHandler,
				http.MethodPut: ph.ReplaceConfigHandler,
			})
		case "discover-sources":
			dh.DiscoverSourcesHandler(w, r)
		case "generate-personality":
			dh.GeneratePersonalityHandler(w, r)
		default:
			s.app.APIHandler.NotFoundHandler(w, r)
		}
		return
	case 3:
		if parts[1] == "sources" {
			ph.RemoveSourceHandler(w, r)
			return
		}
	case 4:
		if parts[1] == "sources" && parts[3] == "ingest" {
			ph.IngestSourceHandler(w, r)
			return
		}
	}

	s.app.APIHandler.NotFoundHandler(w, r)
}
