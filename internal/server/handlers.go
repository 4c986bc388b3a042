package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/intelligence"
)

const (
	maxCompanyNameLength    = 200
	maxJobDescriptionLength = 20000
)

// IntelligenceRequest is the body of POST /intelligence
type IntelligenceRequest struct {
	CompanyName    string `json:"company_name" validate:"required,max=200"`
	JobDescription string `json:"job_description,omitempty" validate:"max=20000"`
}

// CompaniesResponse lists curated companies
type CompaniesResponse struct {
	Companies []string `json:"companies"`
	Count     int      `json:"count"`
}

// CompanyResponse summarizes one curated company
type CompanyResponse struct {
	Company             string   `json:"company"`
	CulturalValues      []string `json:"cultural_values"`
	BehavioralQuestions []string `json:"behavioral_questions"`
}

// ContextResponse carries rendered interviewer context for one round
type ContextResponse struct {
	Company string `json:"company"`
	Round   string `json:"round"`
	Context string `json:"context"`
	Curated bool   `json:"curated"`
}

// handleGetIntelligence handles GET /intelligence?company=&jd=
func (s *Server) handleGetIntelligence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.serveIntelligence(w, r, IntelligenceRequest{
		CompanyName:    strings.TrimSpace(q.Get("company")),
		JobDescription: q.Get("jd"),
	})
}

// handlePostIntelligence handles POST /intelligence
func (s *Server) handlePostIntelligence(w http.ResponseWriter, r *http.Request) {
	var req IntelligenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorFrom(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	s.serveIntelligence(w, r, req)
}

func (s *Server) serveIntelligence(w http.ResponseWriter, r *http.Request, req IntelligenceRequest) {
	if err := s.validate.Struct(req); err != nil {
		s.errorFrom(w, validationError(err))
		return
	}

	result := s.intel.GetIntelligence(r.Context(), req.CompanyName, req.JobDescription)
	if result.Profile == nil {
		s.logger.Info("no intelligence produced",
			zap.String("company", req.CompanyName),
			zap.String("error", result.Error))
		s.jsonResponse(w, http.StatusNotFound, result)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleListCompanies handles GET /companies
func (s *Server) handleListCompanies(w http.ResponseWriter, _ *http.Request) {
	companies := s.catalog.Companies()
	if companies == nil {
		companies = []string{}
	}
	s.jsonResponse(w, http.StatusOK, CompaniesResponse{Companies: companies, Count: len(companies)})
}

// handleGetCompany handles GET /companies/{name}
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if !s.catalog.Contains(name) {
		s.errorFrom(w, &ErrNotFound{Company: name})
		return
	}
	s.jsonResponse(w, http.StatusOK, CompanyResponse{
		Company:             name,
		CulturalValues:      s.catalog.CulturalValues(name),
		BehavioralQuestions: s.catalog.BehavioralQuestions(name),
	})
}

// handleCompanyContext handles GET /companies/{name}/context?round=
func (s *Server) handleCompanyContext(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	round := strings.TrimSpace(r.URL.Query().Get("round"))
	if round == "" {
		s.errorFrom(w, &ErrValidation{Field: "round", Message: "is required"})
		return
	}
	s.jsonResponse(w, http.StatusOK, ContextResponse{
		Company: name,
		Round:   round,
		Context: s.catalog.InterviewContext(name, round),
		Curated: s.catalog.Contains(name),
	})
}

var _ IntelligenceService = (*intelligence.Service)(nil)
