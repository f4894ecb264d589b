package handlers

import (
	"net/http"

	"irrigation_control/internal/models"
	"irrigation_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockZones struct {
	zones    []models.ZoneStatus
	onErr    error
	offErr   error
	pulseErr error
	allErr   error

	onCalls     []string
	offCalls    []string
	pulseCalls  []string
	lastSeconds int
	allOffCalls int
}

func (m *mockZones) List() []models.ZoneStatus { return m.zones }
func (m *mockZones) TurnOn(key string) error {
	m.onCalls = append(m.onCalls, key)
	return m.onErr
}
func (m *mockZones) TurnOff(key string) error {
	m.offCalls = append(m.offCalls, key)
	return m.offErr
}
func (m *mockZones) Pulse(key string, seconds int) error {
	m.pulseCalls = append(m.pulseCalls, key)
	m.lastSeconds = seconds
	return m.pulseErr
}
func (m *mockZones) AllOff() error {
	m.allOffCalls++
	return m.allErr
}
func (m *mockZones) ZoneName(key string) string { return "Zone " + key }

type mockSchedules struct {
	schedules []models.Schedule
	listErr   error
	added     models.Schedule
	addErr    error
	deleteErr error

	lastAdded     models.Schedule
	lastDeletedID int
}

func (m *mockSchedules) List() ([]models.Schedule, error) {
	return m.schedules, m.listErr
}
func (m *mockSchedules) Add(s models.Schedule) (models.Schedule, error) {
	m.lastAdded = s
	return m.added, m.addErr
}
func (m *mockSchedules) Delete(id int) error {
	m.lastDeletedID = id
	return m.deleteErr
}

type mockMonitoring struct {
	report     service.StatusReport
	hardware   []models.HardwareStatus
	errRecords []models.HardwareErrorRecord
	errErr     error
	skips      []models.SkipRecord
	skipsErr   error
	env        models.Environment
	refreshErr error

	lastErrLimit  int
	lastSkipLimit int
	refreshCalls  int
}

func (m *mockMonitoring) Status() service.StatusReport { return m.report }

func (m *mockMonitoring) Hardware() []models.HardwareStatus { return m.hardware }

func (m *mockMonitoring) HardwareErrors(limit int) ([]models.HardwareErrorRecord, error) {
	m.lastErrLimit = limit
	return m.errRecords, m.errErr
}
func (m *mockMonitoring) Skips(limit int) ([]models.SkipRecord, error) {
	m.lastSkipLimit = limit
	return m.skips, m.skipsErr
}
func (m *mockMonitoring) RefreshSensor() (models.Environment, error) {
	m.refreshCalls++
	return m.env, m.refreshErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
