// Package fakeapi serves an in-memory ministry attendance API for tests
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/pending"
)

type failure struct {
	status int
	body   any
}

// Server is an in-memory backend. Attendance is upserted on
// (schedule, member, category) like the real API.
type Server struct {
	*httptest.Server

	// Token, when set, is required as a bearer token on every request
	Token string
	// Session scopes the pending endpoints and self registration
	Session model.Session
	// Now is used for pendings and timestamps. Defaults to time.Now.
	Now func() time.Time

	mu       sync.Mutex
	shelters []model.Shelter
	records  map[string]model.AttendanceRecord
	reports  map[string]model.VisitReport
	failures map[string]failure
	hits     map[string]int
	headers  []http.Header
}

// New starts a server. Close it with t.Cleanup(srv.Close).
func New() *Server {
	s := &Server{
		Now:      time.Now,
		records:  make(map[string]model.AttendanceRecord),
		reports:  make(map[string]model.VisitReport),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Route("/attendance", func(r chi.Router) {
		r.Post("/register", s.registerSelf)
		r.Post("/register/team", s.registerTeam)
		r.Get("/pending/leader", s.pendingLeader)
		r.Get("/pending/member", s.pendingMember)
		r.Get("/records", s.listRecords)
		r.Get("/team/{teamID}/members", s.teamMembers)
		r.Get("/team/{teamID}/schedules", s.teamSchedules)
		r.Get("/team/{teamID}/overview", s.teamOverview)
		r.Get("/leader/teams", s.leaderTeams)
		r.Get("/shelters-teams-members", s.sheltersTeamsMembers)
		r.Get("/teams/members", s.teamsMembers)
		r.Get("/sheets/hierarchical", s.hierarchicalSheets)
	})

	r.Route("/visit-reports", func(r chi.Router) {
		r.Get("/", s.listReports)
		r.Post("/", s.createReport)
		r.Get("/{id}", s.getReport)
		r.Put("/{id}", s.updateReport)
		r.Delete("/{id}", s.deleteReport)
	})

	return r
}

// track counts hits, checks the bearer token and serves injected failures
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.hits[route]++
		s.headers = append(s.headers, r.Header.Clone())
		fail, failing := s.failures[route]
		if failing {
			delete(s.failures, route)
		}
		token := s.Token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		if failing {
			writeJSON(w, fail.status, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request on method and path answer with status and body
func (s *Server) FailNext(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Hits returns how many requests reached method and path
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// LastHeaders returns the headers of the most recent request
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

// AddShelter seeds a shelter with its teams, members and schedules
func (s *Server) AddShelter(shelter model.Shelter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range shelter.Teams {
		shelter.Teams[i].ShelterID = shelter.ID
		shelter.Teams[i].ShelterName = shelter.Name
		for j := range shelter.Teams[i].Schedules {
			shelter.Teams[i].Schedules[j].TeamID = shelter.Teams[i].ID
		}
	}
	s.shelters = append(s.shelters, shelter)
}

// SeedRecord stores an attendance record as if it had been registered
func (s *Server) SeedRecord(rec model.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.records[recordKey(rec.ScheduleID, rec.MemberID, rec.Category)] = rec
}

// SeedReport stores a visit report
func (s *Server) SeedReport(report model.VisitReport) model.VisitReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	s.reports[report.ID] = report
	return report
}

// Records returns every stored record sorted by schedule then member
func (s *Server) Records() []model.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AttendanceRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduleID != out[j].ScheduleID {
			return out[i].ScheduleID < out[j].ScheduleID
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// Reports returns every stored visit report
func (s *Server) Reports() []model.VisitReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportsLocked()
}

func (s *Server) reportsLocked() []model.VisitReport {
	out := make([]model.VisitReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduleID < out[j].ScheduleID })
	return out
}

func recordKey(scheduleID, memberID string, category model.Category) string {
	return scheduleID + "|" + memberID + "|" + string(category)
}

func (s *Server) findSchedule(id string) (*model.Shelter, *model.Team, *model.Schedule) {
	for i := range s.shelters {
		for j := range s.shelters[i].Teams {
			team := &s.shelters[i].Teams[j]
			for k := range team.Schedules {
				if team.Schedules[k].ID == id {
					return &s.shelters[i], team, &team.Schedules[k]
				}
			}
		}
	}
	return nil, nil, nil
}

func (s *Server) upsert(scheduleID, memberID string, category model.Category, t model.AttendanceType, comment *string) model.AttendanceRecord {
	now := s.Now().UTC()
	key := recordKey(scheduleID, memberID, category)
	rec, ok := s.records[key]
	if !ok {
		rec = model.AttendanceRecord{
			ID:         uuid.New().String(),
			ScheduleID: scheduleID,
			MemberID:   memberID,
			Category:   category,
			CreatedAt:  now,
		}
	}
	rec.Type = t
	rec.Comment = ""
	if comment != nil {
		rec.Comment = *comment
	}
	rec.UpdatedAt = now
	s.records[key] = rec
	return rec
}

func (s *Server) registerSelf(w http.ResponseWriter, r *http.Request) {
	var body apiclient.RegisterAttendanceDto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, sched := s.findSchedule(body.ScheduleID)
	if sched == nil {
		writeMessage(w, http.StatusNotFound, "Schedule not found")
		return
	}
	if s.Session.MemberID == "" {
		writeMessage(w, http.StatusForbidden, "No member linked to this account")
		return
	}
	rec := s.upsert(sched.ID, s.Session.MemberID, sched.Category, model.AttendanceType(body.Type), body.Comment)
	writeJSON(w, http.StatusCreated, apiclient.AttendanceToDto(rec))
}

func (s *Server) registerTeam(w http.ResponseWriter, r *http.Request) {
	var body apiclient.RegisterTeamAttendanceDto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}
	var problems []string
	if body.TeamID == "" {
		problems = append(problems, "teamId should not be empty")
	}
	if body.ScheduleID == "" {
		problems = append(problems, "scheduleId should not be empty")
	}
	if !model.Category(body.Category).IsValid() {
		problems = append(problems, "category must be one of: visit, meeting")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": problems, "error": "Bad Request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, team, sched := s.findSchedule(body.ScheduleID)
	if sched == nil || team.ID != body.TeamID {
		writeMessage(w, http.StatusNotFound, "Schedule not found for team")
		return
	}

	out := make([]apiclient.AttendanceResponseDto, 0, len(body.Attendances))
	for _, a := range body.Attendances {
		rec := s.upsert(body.ScheduleID, a.MemberID, model.Category(body.Category), model.AttendanceType(a.Type), a.Comment)
		out = append(out, apiclient.AttendanceToDto(rec))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := atoiDefault(q.Get("limit"), 10)
	page := atoiDefault(q.Get("page"), 1)

	var matched []model.AttendanceRecord
	for _, rec := range s.Records() {
		if id := q.Get("scheduleId"); id != "" && rec.ScheduleID != id {
			continue
		}
		if cat := q.Get("category"); cat != "" && string(rec.Category) != cat {
			continue
		}
		matched = append(matched, rec)
	}

	resp := apiclient.PaginatedResponseDto[apiclient.AttendanceResponseDto]{
		Data:       []apiclient.AttendanceResponseDto{},
		Total:      len(matched),
		Page:       page,
		Limit:      limit,
		TotalPages: (len(matched) + limit - 1) / limit,
	}
	start := (page - 1) * limit
	for i := start; i < len(matched) && i < start+limit; i++ {
		resp.Data = append(resp.Data, apiclient.AttendanceToDto(matched[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pendingInput() pending.Input {
	var records []model.AttendanceRecord
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return pending.Input{
		Hierarchy:  s.shelters,
		Attendance: pending.NewAttendanceIndex(records),
		Reports:    pending.NewReportIndex(s.reportsLocked()),
		Session:    s.Session,
		Now:        s.Now(),
	}
}

func (s *Server) pendingLeader(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")

	s.mu.Lock()
	result := pending.Compute(s.pendingInput())
	s.mu.Unlock()

	reportPending := make(map[string]bool)
	for _, tr := range result.VisitReportPendings {
		for _, sched := range tr.Schedules {
			reportPending[sched.ID] = true
		}
	}

	out := []apiclient.PendingForLeaderDto{}
	for _, tp := range result.LeaderPendings {
		if teamID != "" && tp.Team.ID != teamID {
			continue
		}
		for _, sp := range tp.Schedules {
			dto := apiclient.PendingForLeaderDto{
				ShelterName:   tp.ShelterName,
				TeamID:        tp.Team.ID,
				TeamNumber:    tp.Team.Number,
				Schedule:      apiclient.ScheduleToDto(sp.Schedule),
				ReportPending: reportPending[sp.Schedule.ID],
			}
			for _, m := range sp.PendingMembers {
				dto.PendingMembers = append(dto.PendingMembers, memberToDto(m))
			}
			out = append(out, dto)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) pendingMember(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := pending.Compute(s.pendingInput())
	s.mu.Unlock()

	out := []apiclient.PendingForMemberDto{}
	for _, mp := range result.MemberPendings {
		out = append(out, apiclient.PendingForMemberDto{
			ShelterName: mp.ShelterName,
			TeamID:      mp.Team.ID,
			TeamNumber:  mp.Team.Number,
			Schedule:    apiclient.ScheduleToDto(mp.Schedule),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) team(w http.ResponseWriter, r *http.Request) (*model.Shelter, *model.Team, bool) {
	shelter, team := model.FindTeam(s.shelters, chi.URLParam(r, "teamID"))
	if team == nil {
		writeMessage(w, http.StatusNotFound, "Team not found")
		return nil, nil, false
	}
	return shelter, team, true
}

func (s *Server) teamMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, team, ok := s.team(w, r)
	if !ok {
		return
	}
	out := []apiclient.MemberDto{}
	for _, m := range team.Members {
		out = append(out, memberToDto(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) teamSchedules(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, team, ok := s.team(w, r)
	if !ok {
		return
	}

	schedules := append([]model.Schedule(nil), team.Schedules...)
	desc := r.URL.Query().Get("sortOrder") == "desc"
	switch r.URL.Query().Get("sortBy") {
	case "visitNumber":
		sort.SliceStable(schedules, func(i, j int) bool {
			if desc {
				return schedules[i].VisitNumber > schedules[j].VisitNumber
			}
			return schedules[i].VisitNumber < schedules[j].VisitNumber
		})
	case "date":
		sort.SliceStable(schedules, func(i, j int) bool {
			a, _ := schedules[i].EffectiveDate()
			b, _ := schedules[j].EffectiveDate()
			if desc {
				return a.After(b)
			}
			return a.Before(b)
		})
	}

	out := []apiclient.ScheduleDto{}
	for _, sched := range schedules {
		out = append(out, apiclient.ScheduleToDto(sched))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) teamOverview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shelter, team, ok := s.team(w, r)
	if !ok {
		return
	}

	dto := apiclient.TeamOverviewDto{
		TeamID:        team.ID,
		TeamNumber:    team.Number,
		ShelterName:   shelter.Name,
		MemberCount:   len(team.Members),
		ScheduleCount: len(team.Schedules),
	}

	registered := make(map[string]bool)
	for _, rec := range s.records {
		registered[rec.ScheduleID] = true
	}
	cutoff := s.Now()
	var last *model.Schedule
	var lastDate time.Time
	for i, sched := range team.Schedules {
		date, valid := sched.EffectiveDate()
		if registered[sched.ID] {
			if last == nil || date.After(lastDate) {
				last, lastDate = &team.Schedules[i], date
			}
			continue
		}
		if valid && !date.After(cutoff) && len(team.Members) > 0 {
			dto.PendingScheduleCount++
		}
	}
	if last != nil {
		sd := apiclient.ScheduleToDto(*last)
		dto.LastRegistered = &sd
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) leaderTeams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []apiclient.TeamDto{}
	for _, shelter := range s.shelters {
		for _, team := range shelter.Teams {
			if s.Session.Role == model.RoleAdmin || hasMember(team, s.Session.MemberID) {
				out = append(out, teamToDto(team, false))
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sheltersTeamsMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []apiclient.ShelterWithTeamsDto{}
	for _, shelter := range s.shelters {
		dto := apiclient.ShelterWithTeamsDto{ID: shelter.ID, Name: shelter.Name, Teams: []apiclient.TeamDto{}}
		for _, team := range shelter.Teams {
			dto.Teams = append(dto.Teams, teamToDto(team, true))
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) teamsMembers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []apiclient.TeamDto{}
	for _, shelter := range s.shelters {
		for _, team := range shelter.Teams {
			out = append(out, teamToDto(team, true))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) hierarchicalSheets(w http.ResponseWriter, r *http.Request) {
	start, _ := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	end, endErr := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))
	if endErr == nil {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []apiclient.SheetShelterDto{}
	for _, shelter := range s.shelters {
		sd := apiclient.SheetShelterDto{ShelterID: shelter.ID, ShelterName: shelter.Name, Teams: []apiclient.SheetTeamDto{}}
		for _, team := range shelter.Teams {
			td := apiclient.SheetTeamDto{TeamID: team.ID, TeamNumber: team.Number, Description: team.Description, Schedules: []apiclient.SheetScheduleDto{}}
			for _, sched := range team.Schedules {
				date, ok := sched.EffectiveDate()
				if !ok || (!start.IsZero() && date.Before(start)) || (endErr == nil && date.After(end)) {
					continue
				}
				td.Schedules = append(td.Schedules, s.sheetSchedule(team, sched))
			}
			sd.Teams = append(sd.Teams, td)
		}
		out = append(out, sd)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sheetSchedule(team model.Team, sched model.Schedule) apiclient.SheetScheduleDto {
	dto := apiclient.SheetScheduleDto{ScheduleDto: apiclient.ScheduleToDto(sched), Attendances: []apiclient.SheetRecordDto{}}
	for _, m := range team.Members {
		rec, ok := s.records[recordKey(sched.ID, m.ID, sched.Category)]
		if !ok {
			dto.PendingCount++
			continue
		}
		if rec.Type == model.AttendanceAbsent {
			dto.AbsentCount++
		} else {
			dto.PresentCount++
		}
		dto.Attendances = append(dto.Attendances, apiclient.SheetRecordDto{
			MemberID:   m.ID,
			MemberName: m.Name,
			Type:       string(rec.Type),
			Comment:    rec.Comment,
		})
	}
	return dto
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("teamId")
	scheduleID := r.URL.Query().Get("scheduleId")
	out := []apiclient.VisitReportDto{}
	for _, report := range s.Reports() {
		if teamID != "" && report.TeamID != teamID {
			continue
		}
		if scheduleID != "" && report.ScheduleID != scheduleID {
			continue
		}
		out = append(out, apiclient.VisitReportToDto(report))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[chi.URLParam(r, "id")]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Visit report not found")
		return
	}
	writeJSON(w, http.StatusOK, apiclient.VisitReportToDto(report))
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var body apiclient.VisitReportDto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reports {
		if existing.ScheduleID == body.ScheduleID {
			writeMessage(w, http.StatusConflict, "A report already exists for this schedule")
			return
		}
	}

	report := reportFromDto(body)
	report.ID = uuid.New().String()
	report.CreatedAt = s.Now().UTC()
	report.UpdatedAt = report.CreatedAt
	s.reports[report.ID] = report
	writeJSON(w, http.StatusCreated, apiclient.VisitReportToDto(report))
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	var body apiclient.VisitReportDto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	existing, ok := s.reports[id]
	if !ok {
		writeMessage(w, http.StatusNotFound, "Visit report not found")
		return
	}

	report := reportFromDto(body)
	report.ID = id
	report.CreatedAt = existing.CreatedAt
	report.UpdatedAt = s.Now().UTC()
	s.reports[id] = report
	writeJSON(w, http.StatusOK, apiclient.VisitReportToDto(report))
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.reports[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Visit report not found")
		return
	}
	delete(s.reports, id)
	w.WriteHeader(http.StatusNoContent)
}

func reportFromDto(d apiclient.VisitReportDto) model.VisitReport {
	return model.VisitReport{
		ScheduleID:             d.ScheduleID,
		TeamID:                 d.TeamID,
		ShelterID:              d.ShelterID,
		TeamMembersPresent:     d.TeamMembersPresent,
		ShelteredHeardMessage:  d.ShelteredHeardMessage,
		CaretakersHeardMessage: d.CaretakersHeardMessage,
		ShelteredDecisions:     d.ShelteredDecisions,
		CaretakersDecisions:    d.CaretakersDecisions,
		Observation:            d.Observation,
	}
}

func memberToDto(m model.Member) apiclient.MemberDto {
	return apiclient.MemberDto{ID: m.ID, Name: m.Name, Email: m.Email, Role: string(m.Role)}
}

func teamToDto(team model.Team, withMembers bool) apiclient.TeamDto {
	members := len(team.Members)
	schedules := len(team.Schedules)
	dto := apiclient.TeamDto{
		ID:            team.ID,
		ShelterID:     team.ShelterID,
		ShelterName:   team.ShelterName,
		Number:        team.Number,
		Description:   team.Description,
		MemberCount:   &members,
		ScheduleCount: &schedules,
	}
	if withMembers {
		for _, m := range team.Members {
			dto.Members = append(dto.Members, memberToDto(m))
		}
	}
	return dto
}

func hasMember(team model.Team, memberID string) bool {
	for _, m := range team.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg, "statusCode": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
