package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/auth"
	"github.com/fleet-console/fleet-console-pro/internal/configedit"
	"github.com/fleet-console/fleet-console-pro/internal/dispatch"
	"github.com/fleet-console/fleet-console-pro/internal/models"
	"github.com/fleet-console/fleet-console-pro/internal/remote"
	"github.com/fleet-console/fleet-console-pro/internal/settings"
	"github.com/fleet-console/fleet-console-pro/internal/stream"
)

// HandleHealth reports liveness and backend reachability
func (s *ConsoleServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":       "ok",
		"refreshed_at": s.deps.Fleet.RefreshedAt(),
	}
	if err := s.deps.Fleet.LastError(); err != nil {
		payload["backend_error"] = err.Error()
	}
	s.respondJSON(w, http.StatusOK, payload)
}

// ========== Fleet handlers ==========

// fleetRow is one rendered device row: the snapshot record plus the
// derived display bucket, selection flag, and buffered log events
type fleetRow struct {
	models.DeviceRecord
	Display  models.DisplayStatus `json:"display_status"`
	Selected bool                 `json:"selected"`
	Logs     []models.LogEvent    `json:"logs"`
}

// HandleFleetView returns the filtered, ordered fleet view
func (s *ConsoleServer) HandleFleetView(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	group := r.URL.Query().Get("group")

	records := s.deps.Fleet.View(filter, group)
	rows := make([]fleetRow, len(records))
	for i, rec := range records {
		rows[i] = fleetRow{
			DeviceRecord: rec,
			Display:      rec.DisplayStatus(),
			Selected:     s.deps.Selection.Contains(rec.DeviceID),
			Logs:         s.deps.Streams.Buffer(rec.DeviceID),
		}
	}

	universe := s.deps.Fleet.IDs()
	engineStatus, engineMessage := s.deps.Fleet.EngineStatus()

	payload := map[string]interface{}{
		"devices": rows,
		"selection": map[string]interface{}{
			"count": s.deps.Selection.Count(),
			"state": s.deps.Selection.State(len(universe)),
		},
		"engine": map[string]string{
			"status":  engineStatus,
			"message": engineMessage,
		},
		"refreshed_at": s.deps.Fleet.RefreshedAt(),
	}
	if err := s.deps.Fleet.LastError(); err != nil {
		// last good data stays visible; the error rides alongside it
		payload["poll_error"] = err.Error()
	}

	s.respondJSON(w, http.StatusOK, payload)
}

// HandleFleetSummary returns the dashboard card counts
func (s *ConsoleServer) HandleFleetSummary(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.deps.Fleet.Summarize())
}

// HandleFleetRefresh forces an immediate snapshot poll
func (s *ConsoleServer) HandleFleetRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Fleet.Refresh(r.Context()); err != nil {
		s.respondRemoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// ========== Selection handlers ==========

// HandleGetSelection returns the ordered selection and its tri-state
func (s *ConsoleServer) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	universe := s.deps.Fleet.IDs()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"device_ids": s.deps.Selection.Selected(),
		"state":      s.deps.Selection.State(len(universe)),
	})
}

// HandleToggleSelection flips one device in or out of the selection
func (s *ConsoleServer) HandleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID string `json:"device_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// only devices in the current snapshot may enter the selection
	if _, ok := s.deps.Fleet.Get(req.DeviceID); !ok {
		s.respondError(w, http.StatusNotFound, "device not found")
		return
	}

	s.deps.Selection.Toggle(req.DeviceID)
	s.HandleGetSelection(w, r)
}

// HandleToggleAll toggles selection of the entire fleet universe,
// never just the displayed page
func (s *ConsoleServer) HandleToggleAll(w http.ResponseWriter, r *http.Request) {
	s.deps.Selection.ToggleAll(s.deps.Fleet.IDs())
	s.HandleGetSelection(w, r)
}

// HandleClearSelection empties the selection
func (s *ConsoleServer) HandleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.deps.Selection.Clear()
	s.HandleGetSelection(w, r)
}

// ========== Command handlers ==========

// HandleStartCommand starts automation on the current selection
func (s *ConsoleServer) HandleStartCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode      string `json:"mode" validate:"required,oneof=follow warmup"`
		WarmupDay int    `json:"warmup_day" validate:"max=7"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := models.TaskMode(req.Mode)
	if mode == models.TaskModeWarmup && (req.WarmupDay < 1 || req.WarmupDay > models.WarmupDays) {
		s.respondError(w, http.StatusBadRequest, "warmup_day must be between 1 and 7")
		return
	}

	message, err := s.deps.Dispatcher.Start(r.Context(), s.deps.Selection.Selected(), mode, req.WarmupDay)
	if err != nil {
		s.respondDispatchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleStopCommand stops automation on the current selection
func (s *ConsoleServer) HandleStopCommand(w http.ResponseWriter, r *http.Request) {
	message, err := s.deps.Dispatcher.Stop(r.Context(), s.deps.Selection.Selected())
	if err != nil {
		s.respondDispatchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleStopAllCommand stops the entire fleet regardless of selection
func (s *ConsoleServer) HandleStopAllCommand(w http.ResponseWriter, r *http.Request) {
	message, err := s.deps.Dispatcher.StopAll(r.Context())
	if err != nil {
		s.respondDispatchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// ========== Device handlers ==========

// HandleDeviceLogs returns the device's buffered events, newest first.
// An empty buffer falls back to the backend's backlog so a freshly
// opened view is not blank before the first pushed event.
func (s *ConsoleServer) HandleDeviceLogs(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	if _, ok := s.deps.Fleet.Get(deviceID); !ok {
		s.respondError(w, http.StatusNotFound, "device not found")
		return
	}

	logs := s.deps.Streams.Buffer(deviceID)
	if len(logs) == 0 {
		backlog, err := s.deps.Backend.ListLogs(r.Context(), stream.BufferSize, deviceID)
		if err != nil {
			log.Debug().Str("device_id", deviceID).Err(err).Msg("log backlog fetch failed")
		} else {
			logs = backlog
		}
	}
	s.respondJSON(w, http.StatusOK, logs)
}

// HandleDeviceStats proxies the per-device rolling counters
func (s *ConsoleServer) HandleDeviceStats(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	stats, err := s.deps.Backend.AccountStats(r.Context(), deviceID)
	if err != nil {
		s.respondRemoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// HandleEnableDevice enables one device and refreshes the snapshot
func (s *ConsoleServer) HandleEnableDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceEnabled(w, r, true)
}

// HandleDisableDevice disables one device and refreshes the snapshot
func (s *ConsoleServer) HandleDisableDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceEnabled(w, r, false)
}

func (s *ConsoleServer) setDeviceEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	deviceID := chi.URLParam(r, "id")
	if err := s.deps.Dispatcher.SetEnabled(r.Context(), deviceID, enabled); err != nil {
		s.respondDispatchError(w, err)
		return
	}

	record, ok := s.deps.Fleet.Get(deviceID)
	if !ok {
		s.respondJSON(w, http.StatusOK, map[string]bool{"is_enabled": enabled})
		return
	}
	s.respondJSON(w, http.StatusOK, record)
}

// ========== Session config handlers ==========

// HandleGetSessionConfig returns the draft, server value, and edit state
func (s *ConsoleServer) HandleGetSessionConfig(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"draft":  s.deps.Session.Draft(),
		"server": s.deps.Session.ServerValue(),
		"state":  s.deps.Session.State(),
	}
	if err := s.deps.Session.SaveError(); err != nil {
		payload["save_error"] = err.Error()
	}
	s.respondJSON(w, http.StatusOK, payload)
}

// HandleEditSessionConfig replaces the local draft; nothing is sent to
// the backend until an explicit save
func (s *ConsoleServer) HandleEditSessionConfig(w http.ResponseWriter, r *http.Request) {
	var draft models.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&draft); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Session.SetDraft(draft); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.HandleGetSessionConfig(w, r)
}

// HandleSaveSessionConfig transmits the whole draft to the backend
func (s *ConsoleServer) HandleSaveSessionConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Save(r.Context()); err != nil {
		if errors.Is(err, configedit.ErrSavePending) || errors.Is(err, configedit.ErrNotLoaded) {
			s.respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.respondRemoteError(w, err)
		return
	}
	s.deps.Notify.Success("Session config saved")
	s.HandleGetSessionConfig(w, r)
}

// HandleRevertSessionConfig discards local edits
func (s *ConsoleServer) HandleRevertSessionConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Revert(); err != nil {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	s.HandleGetSessionConfig(w, r)
}

// ========== Warmup handlers ==========

// HandleListWarmupDays returns all seven drafts and the selected day
func (s *ConsoleServer) HandleListWarmupDays(w http.ResponseWriter, r *http.Request) {
	days := make(map[string]models.WarmupDayConfig, models.WarmupDays)
	for day := 1; day <= models.WarmupDays; day++ {
		cfg, _ := s.deps.Warmup.Day(day)
		days[strconv.Itoa(day)] = cfg
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":     days,
		"selected": s.deps.Warmup.SelectedDay(),
	})
}

// HandleGetWarmupDay returns one day's draft
func (s *ConsoleServer) HandleGetWarmupDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.deps.Warmup.Day(day)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, cfg)
}

// HandleEditWarmupDay replaces one day's draft, session-local only
func (s *ConsoleServer) HandleEditWarmupDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cfg models.WarmupDayConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Warmup.UpdateDay(day, cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, cfg)
}

// HandleSelectWarmupDay switches the visible day without touching any
// other day's edits
func (s *ConsoleServer) HandleSelectWarmupDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Warmup.SelectDay(day); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"selected": day})
}

// HandleResetWarmupDay restores one day to the built-in default
func (s *ConsoleServer) HandleResetWarmupDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Warmup.ResetDay(day); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, _ := s.deps.Warmup.Day(day)
	s.respondJSON(w, http.StatusOK, cfg)
}

// ========== Target handlers ==========

// HandleListTargets proxies the target queue listing
func (s *ConsoleServer) HandleListTargets(w http.ResponseWriter, r *http.Request) {
	params := remote.TargetListParams{
		Status: r.URL.Query().Get("status"),
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	targets, err := s.deps.Backend.ListTargets(r.Context(), params)
	if err != nil {
		s.respondRemoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, targets)
}

// HandleAddTargets proxies structured target additions
func (s *ConsoleServer) HandleAddTargets(w http.ResponseWriter, r *http.Request) {
	var targets []models.TargetBase
	if err := json.NewDecoder(r.Body).Decode(&targets); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(targets) == 0 {
		s.respondError(w, http.StatusBadRequest, "no targets provided")
		return
	}
	for i := range targets {
		if err := s.validator.Validate(&targets[i]); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	message, err := s.deps.Backend.AddTargets(r.Context(), targets)
	if err != nil {
		s.respondRemoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleTargetStats proxies the target queue summary
func (s *ConsoleServer) HandleTargetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Backend.TargetStats(r.Context())
	if err != nil {
		s.respondRemoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// ========== Settings handlers ==========

// HandleGetSetting reads one operator setting
func (s *ConsoleServer) HandleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := s.deps.Settings.GetString(key)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "setting not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// HandlePutSetting writes one operator setting
func (s *ConsoleServer) HandlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Settings.SetString(key, req.Value); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}

// HandleActivationKeyInfo surfaces the stored activation key's claims
func (s *ConsoleServer) HandleActivationKeyInfo(w http.ResponseWriter, r *http.Request) {
	key := s.config.Backend.ActivationKey
	if stored, err := s.deps.Settings.GetString(settings.KeyActivationKey); err == nil && stored != "" {
		key = stored
	}
	if key == "" {
		s.respondError(w, http.StatusNotFound, "no activation key configured")
		return
	}

	info, err := auth.InspectKey(key)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

// ========== Notification handlers ==========

// HandleListNotifications returns recent notifications, newest first
func (s *ConsoleServer) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	s.respondJSON(w, http.StatusOK, s.deps.Notify.Recent(limit))
}

// ========== Helpers ==========

func parseDay(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, errors.New("day must be a number between 1 and 7")
	}
	return day, nil
}

// respondJSON responds with JSON
func (s *ConsoleServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *ConsoleServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDispatchError maps dispatcher failures onto HTTP statuses:
// local validation is 400, a duplicate submission is 409, backend
// failures keep their normalized taxonomy
func (s *ConsoleServer) respondDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrNoSelection):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrInFlight):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.respondRemoteError(w, err)
	}
}

// respondRemoteError maps a normalized backend error onto this API:
// connectivity and server failures surface as 502, client failures keep
// the backend's status so operators can tell invalid input from outage
func (s *ConsoleServer) respondRemoteError(w http.ResponseWriter, err error) {
	apiErr, ok := remote.AsAPIError(err)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch apiErr.Kind {
	case remote.KindClient:
		status := apiErr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadRequest
		}
		s.respondError(w, status, apiErr.Message)
	default:
		s.respondError(w, http.StatusBadGateway, apiErr.Message)
	}
}
