package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *ConsoleServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)

	// WebSocket push channel
	r.Get("/ws", s.HandleWebSocket)

	// Fleet view
	r.Route("/fleet", func(r chi.Router) {
		r.Get("/", s.HandleFleetView)
		r.Get("/summary", s.HandleFleetSummary)
		r.With(s.authMiddleware).Post("/refresh", s.HandleFleetRefresh)
	})

	// Selection
	r.Route("/selection", func(r chi.Router) {
		r.Get("/", s.HandleGetSelection)
		r.Post("/toggle", s.HandleToggleSelection)
		r.Post("/toggle-all", s.HandleToggleAll)
		r.Post("/clear", s.HandleClearSelection)
	})

	// Commands
	r.Route("/commands", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/start", s.HandleStartCommand)
		r.Post("/stop", s.HandleStopCommand)
		r.Post("/stop-all", s.HandleStopAllCommand)
	})

	// Per-device operations
	r.Route("/devices/{id}", func(r chi.Router) {
		r.Get("/logs", s.HandleDeviceLogs)
		r.Get("/stats", s.HandleDeviceStats)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Patch("/enable", s.HandleEnableDevice)
			r.Patch("/disable", s.HandleDisableDevice)
		})
	})

	// Follow-automation session config
	r.Route("/session-config", func(r chi.Router) {
		r.Get("/", s.HandleGetSessionConfig)
		r.Patch("/", s.HandleEditSessionConfig)
		r.With(s.authMiddleware).Post("/save", s.HandleSaveSessionConfig)
		r.Post("/revert", s.HandleRevertSessionConfig)
	})

	// Warmup day drafts
	r.Route("/warmup", func(r chi.Router) {
		r.Get("/", s.HandleListWarmupDays)
		r.Route("/{day}", func(r chi.Router) {
			r.Get("/", s.HandleGetWarmupDay)
			r.Patch("/", s.HandleEditWarmupDay)
			r.Post("/select", s.HandleSelectWarmupDay)
			r.Post("/reset", s.HandleResetWarmupDay)
		})
	})

	// Target queue passthrough
	r.Route("/targets", func(r chi.Router) {
		r.Get("/", s.HandleListTargets)
		r.With(s.authMiddleware).Post("/", s.HandleAddTargets)
		r.Get("/stats", s.HandleTargetStats)
	})

	// Operator settings
	r.Route("/settings", func(r chi.Router) {
		r.Get("/{key}", s.HandleGetSetting)
		r.Put("/{key}", s.HandlePutSetting)
	})

	// Activation key inspection
	r.Get("/activation-key", s.HandleActivationKeyInfo)

	// Notifications
	r.Get("/notifications", s.HandleListNotifications)
}
