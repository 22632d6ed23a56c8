package http

import (
	"net/http"
	"strconv"

	"orrfdash/internal/core"
	"orrfdash/internal/services"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Summary()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEntityList(w http.ResponseWriter, r *http.Request) {
	entities, err := s.reports.Store().Entities()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// handleEntity dispatches /api/entities/{id} and its sub-views:
// expenditures, projects, narratives, documents, years, reconciliation,
// hero and grants.
func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id, view, ok := splitEntityPath(r.URL.Path)
	if !ok {
		writeBadRequest(w, "missing entity id")
		return
	}

	if view == "reconciliation" {
		rc, err := s.reports.Reconcile(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rc)
		return
	}

	detail, err := s.reports.EntityDetail(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch view {
	case "":
		writeJSON(w, http.StatusOK, detail)

	case "expenditures":
		writeJSON(w, http.StatusOK, nonNil(detail.Expenditures))

	case "projects":
		writeJSON(w, http.StatusOK, nonNil(detail.Projects))

	case "narratives":
		writeJSON(w, http.StatusOK, detail.Narratives)

	case "documents":
		writeJSON(w, http.StatusOK, nonNil(detail.Documents))

	case "years":
		writeJSON(w, http.StatusOK, nonNil(detail.FiscalYears))

	case "hero":
		fy, err := parseFiscalYear(r)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if fy == 0 {
			fy = 2025
		}
		hero, err := s.reports.HeroData(detail.Entity.Name, fy)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, hero)

	case "grants":
		s.writeMunicipalityGrants(w, r, detail.Entity.DisplayName)

	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown entity view: " + view})
	}
}

// nonNil keeps empty collections rendering as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	totals, err := s.reports.SpendingByCategory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleTopSpenders(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 10)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spenders, err := s.reports.TopSpenders(limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spenders)
}

func (s *Server) handleCollaboratives(w http.ResponseWriter, r *http.Request) {
	collabs, err := s.reports.Collaboratives()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collabs)
}

// municipalityGrants bundles every grant stream relevant to one town.
type municipalityGrants struct {
	Municipality string                  `json:"municipality"`
	County       string                  `json:"county"`
	Rize         []core.Grant            `json:"rize"`
	Regional     services.RegionalGrants `json:"regional"`
}

func (s *Server) handleGrants(w http.ResponseWriter, r *http.Request) {
	if muni := r.URL.Query().Get("municipality"); muni != "" {
		s.writeMunicipalityGrants(w, r, muni)
		return
	}
	all, err := s.reports.AllRegionalGrants()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) writeMunicipalityGrants(w http.ResponseWriter, r *http.Request, muni string) {
	regional, err := s.reports.GrantsFor(muni)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rize, err := s.reports.RizeGrants(muni)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rize == nil {
		rize = []core.Grant{}
	}
	county, err := s.reports.County(muni)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, municipalityGrants{
		Municipality: muni,
		County:       county,
		Rize:         rize,
		Regional:     regional,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := parseTerm(r)
	fy, err := parseFiscalYear(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	key := strconv.Itoa(fy) + "|" + term
	if results, found := s.searchCache.Get(key); found {
		writeJSON(w, http.StatusOK, results)
		return
	}

	results, err := s.reports.Search(term, fy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []services.SearchResult{}
	}
	s.searchCache.Set(key, results)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearchYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.SearchFiscalYears())
}

func (s *Server) handleWordCloud(w http.ResponseWriter, r *http.Request) {
	max := 0
	if v := r.URL.Query().Get("max"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid max '"+v+"'")
			return
		}
		max = parsed
	}

	key := strconv.Itoa(max)
	if words, found := s.wordCloudCache.Get(key); found {
		writeJSON(w, http.StatusOK, words)
		return
	}

	words, err := s.reports.WordCloud(max)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.wordCloudCache.Set(key, words)
	writeJSON(w, http.StatusOK, words)
}

// handleUnresolvedNames surfaces historical municipalities that could not be
// matched to a current record, so data quality issues stay visible.
func (s *Server) handleUnresolvedNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.reports.Store().UnresolvedNames()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleStateSummary(w http.ResponseWriter, r *http.Request) {
	fy, err := parseFiscalYear(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	summary, err := s.reports.StateSummary(fy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStateDepartments(w http.ResponseWriter, r *http.Request) {
	fy, err := parseFiscalYear(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	groups, err := s.reports.StateByDepartment(fy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStateVendors(w http.ResponseWriter, r *http.Request) {
	fy, err := parseFiscalYear(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	limit, err := parseLimit(r, 25)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	groups, err := s.reports.StateByVendor(limit, fy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStateObjectClasses(w http.ResponseWriter, r *http.Request) {
	fy, err := parseFiscalYear(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	groups, err := s.reports.StateByObjectClass(fy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleStateYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.reports.StateFiscalYears()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleStateSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.reports.SearchStateSpending(parseTerm(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []core.StateTransaction{}
	}
	writeJSON(w, http.StatusOK, results)
}
