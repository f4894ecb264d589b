package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"irrigation_control/internal/models"
	"irrigation_control/internal/service"
)

func TestStatusHandlers_GetStatus(t *testing.T) {
	mon := &mockMonitoring{report: service.StatusReport{
		Run:             models.RunState{Active: true, Name: "morning", Step: "2/3: S1 (5m)"},
		CancelRequested: false,
		Zones:           []models.ZoneStatus{{Key: "S1", Name: "Greenhouse", IsOn: true}},
		LastRun:         &service.LastRunInfo{ScheduleID: 1, ScheduleName: "morning", Time: "2025-06-02 06:00"},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var report service.StatusReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !report.Run.Active || report.Run.Step != "2/3: S1 (5m)" {
		t.Fatalf("unexpected run state: %+v", report.Run)
	}
	if report.LastRun == nil || report.LastRun.Time != "2025-06-02 06:00" {
		t.Fatalf("expected last run surfaced, got %+v", report.LastRun)
	}
}

func TestStatusHandlers_GetHardware(t *testing.T) {
	mon := &mockMonitoring{hardware: []models.HardwareStatus{
		{DeviceID: "R1", LastSeen: "42s ago", CanRetry: true},
		{DeviceID: "S1", IsFailed: true, ConsecutiveErrors: 3, LastErrorAgo: "2m ago"},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/hardware", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Devices []models.HardwareStatus `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Devices) != 2 || !resp.Devices[1].IsFailed {
		t.Fatalf("unexpected devices: %+v", resp.Devices)
	}
}

func TestStatusHandlers_HardwareErrorsLimit(t *testing.T) {
	mon := &mockMonitoring{errRecords: []models.HardwareErrorRecord{
		{DeviceID: "S1", ErrorType: "activation_failed", Time: time.Now()},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/hardware/errors?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if mon.lastErrLimit != 5 {
		t.Fatalf("expected limit 5 passed through, got %d", mon.lastErrLimit)
	}

	// Bad limit → 400, service untouched.
	before := mon.lastErrLimit
	w = doAuthed(r, http.MethodGet, "/api/v1/hardware/errors?limit=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", w.Code)
	}
	if mon.lastErrLimit != before {
		t.Fatalf("service must not be called for a bad limit")
	}
}

func TestStatusHandlers_Skips(t *testing.T) {
	mon := &mockMonitoring{skips: []models.SkipRecord{
		{ScheduleID: 1, ScheduleName: "morning", Humidity: 97.5, Time: time.Now()},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/skips", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count int                 `json:"count"`
		Skips []models.SkipRecord `json:"skips"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.Skips[0].Humidity != 97.5 {
		t.Fatalf("unexpected skips: %+v", resp)
	}
}

func TestStatusHandlers_RefreshSensor(t *testing.T) {
	mon := &mockMonitoring{env: models.Environment{TempC: 18.5, Humidity: 55}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodPost, "/api/v1/sensor/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if mon.refreshCalls != 1 {
		t.Fatalf("expected one RefreshSensor call, got %d", mon.refreshCalls)
	}

	mon.refreshErr = errors.New("sensor offline")
	w = doAuthed(r, http.MethodPost, "/api/v1/sensor/refresh", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when sensor unavailable, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := &service.Service{}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}
