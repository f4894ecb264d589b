package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"irrigation_control/internal/models"
	"irrigation_control/internal/service"
)

func TestScheduleHandlers_List(t *testing.T) {
	schedules := &mockSchedules{schedules: []models.Schedule{
		{ID: 1, Name: "morning", Start: "06:00", Days: []string{"Mon"}},
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedules: schedules}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodGet, "/api/v1/schedules", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count     int               `json:"count"`
		Schedules []models.Schedule `json:"schedules"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.Schedules[0].Name != "morning" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestScheduleHandlers_Add(t *testing.T) {
	schedules := &mockSchedules{added: models.Schedule{ID: 9, Name: "morning"}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedules: schedules}
	r := newTestRouter(s)

	body := []byte(`{"name":"morning","start":"06:00","days":["Mon","Wed"],"sequence":[{"key":"R1","mins":10}]}`)
	w := doAuthed(r, http.MethodPost, "/api/v1/schedules", body)
	if w.Code != http.StatusOK {
		t.Fatalf("add status=%d, body=%s", w.Code, w.Body.String())
	}
	if schedules.lastAdded.Name != "morning" || schedules.lastAdded.Start != "06:00" {
		t.Fatalf("service got wrong schedule: %+v", schedules.lastAdded)
	}
	if len(schedules.lastAdded.Sequence) != 1 || schedules.lastAdded.Sequence[0].Key != "R1" {
		t.Fatalf("sequence not passed through: %+v", schedules.lastAdded.Sequence)
	}

	var resp struct {
		Schedule models.Schedule `json:"schedule"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Schedule.ID != 9 {
		t.Fatalf("expected assigned id in response, got %+v", resp.Schedule)
	}
}

func TestScheduleHandlers_AddRejected(t *testing.T) {
	schedules := &mockSchedules{addErr: errors.New(`unknown day "Monday"`)}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedules: schedules}
	r := newTestRouter(s)

	body := []byte(`{"name":"morning","start":"06:00","days":["Monday"],"sequence":[{"key":"R1","mins":10}]}`)
	w := doAuthed(r, http.MethodPost, "/api/v1/schedules", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected schedule, got %d", w.Code)
	}

	// Missing required fields → 400 before the service is touched.
	w = doAuthed(r, http.MethodPost, "/api/v1/schedules", []byte(`{"name":"x"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete payload, got %d", w.Code)
	}
}

func TestScheduleHandlers_Delete(t *testing.T) {
	schedules := &mockSchedules{}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedules: schedules}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodDelete, "/api/v1/schedules/3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d, body=%s", w.Code, w.Body.String())
	}
	if schedules.lastDeletedID != 3 {
		t.Fatalf("expected Delete(3), got %d", schedules.lastDeletedID)
	}

	// Non-numeric id → 400
	w = doAuthed(r, http.MethodDelete, "/api/v1/schedules/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestScheduleHandlers_DeleteNotFound(t *testing.T) {
	schedules := &mockSchedules{deleteErr: service.ErrScheduleNotFound}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Schedules: schedules}
	r := newTestRouter(s)

	w := doAuthed(r, http.MethodDelete, "/api/v1/schedules/42", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing schedule, got %d", w.Code)
	}
}
