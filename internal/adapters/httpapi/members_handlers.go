package httpapi

import (
	"net/http"
	"strconv"

	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
)

func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	raw := memberships.RawQuery{
		Search: qs.Get("search"),
		Role:   qs.Get("role"),
		Type:   qs.Get("type"),
		Status: qs.Get("status"),
		SortBy: qs.Get("sortBy"),
	}
	if v := qs.Get("includeSecondaryProfiles"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid member query", map[string]any{
				"includeSecondaryProfiles": "must be true or false",
			})
			return
		}
		raw.IncludeSecondaryProfiles = b
	}

	q, err := memberships.ParseQuery(raw)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	rows, err := s.memberships.ListMembers(r.Context(), q)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	now := s.clk.Now()
	resp := ListMembersResponse{Members: make([]Member, 0, len(rows)), Total: len(rows)}
	for _, m := range rows {
		resp.Members = append(resp.Members, memberFromApp(m, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := s.memberships.OrphanReport(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListOrphansResponse{Orphans: secondariesFromApp(orphans)})
}

func (s *Server) ListMembershipTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.types.ListActive(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	resp := ListMembershipTypesResponse{MembershipTypes: make([]MembershipType, 0, len(types))}
	for _, t := range types {
		resp.MembershipTypes = append(resp.MembershipTypes, membershipTypeFromDomain(t))
	}
	writeJSON(w, http.StatusOK, resp)
}
