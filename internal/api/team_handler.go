package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// ListTeams возвращает список команд.
// GET /api/v1/teams
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context())
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]TeamResponse, len(teams))
	for i, t := range teams {
		result[i] = TeamFromDomain(t)
	}

	List(w, result, len(result))
}

// CreateTeam создаёт команду.
// POST /api/v1/teams
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	now := h.now().UTC()
	team := domain.NewTeam(0, strings.TrimSpace(req.Name), req.Description, now, now)
	if err := team.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.teams.Create(r.Context(), &team); HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	Created(w, TeamFromDomain(team))
}

// GetTeam возвращает команду по ID.
// GET /api/v1/teams/{id}
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	team, err := h.teams.GetByID(r.Context(), id)
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "team not found") {
		return
	}

	Success(w, TeamFromDomain(*team))
}

// UpdateTeam обновляет имя и описание команды.
// PUT /api/v1/teams/{id}
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	logger := telemetry.FromContext(r.Context())

	team, err := h.teams.GetByID(r.Context(), id)
	if HandleRepoError(w, logger, err, "team not found") {
		return
	}

	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if err := team.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}
	team.UpdatedAt = h.now().UTC()

	if err := h.teams.Update(r.Context(), team); HandleRepoError(w, logger, err, "team not found") {
		return
	}

	Success(w, TeamFromDomain(*team))
}

// DeleteTeam удаляет команду.
// DELETE /api/v1/teams/{id}
func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	if err := h.teams.Delete(r.Context(), id); HandleRepoError(w, telemetry.FromContext(r.Context()), err, "team not found") {
		return
	}

	NoContent(w)
}

// --- Members ---

// ListTeamMembers возвращает участников команды.
// GET /api/v1/teams/{id}/members
func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.existingTeam(w, r)
	if !ok {
		return
	}

	members, err := h.teams.ListMembers(r.Context(), id)
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]MemberResponse, len(members))
	for i, m := range members {
		result[i] = MemberFromDomain(m)
	}

	List(w, result, len(result))
}

// AddTeamMember добавляет участника.
// POST /api/v1/teams/{id}/members
func (h *Handler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		BadRequest(w, "user_id is required")
		return
	}

	role := domain.TeamRoleMember
	if req.Role != "" {
		role = domain.TeamRole(strings.ToUpper(req.Role))
	}
	if !role.IsValid() {
		BadRequest(w, "role must be OWNER or MEMBER")
		return
	}

	member := domain.TeamMember{TeamID: id, UserID: userID, Role: role, AddedAt: h.now().UTC()}
	if err := h.teams.AddMember(r.Context(), &member); HandleRepoError(w, telemetry.FromContext(r.Context()), err, "team not found") {
		return
	}

	Created(w, MemberFromDomain(member))
}

// RemoveTeamMember удаляет участника.
// DELETE /api/v1/teams/{id}/members/{userId}
func (h *Handler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	err = h.teams.RemoveMember(r.Context(), id, r.PathValue("userId"))
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "member not found") {
		return
	}

	NoContent(w)
}

// --- Resources ---

// ListTeamResources возвращает ресурсы команды.
// GET /api/v1/teams/{id}/resources
func (h *Handler) ListTeamResources(w http.ResponseWriter, r *http.Request) {
	id, ok := h.existingTeam(w, r)
	if !ok {
		return
	}

	resources, err := h.teams.ListResources(r.Context(), id)
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]ResourceResponse, len(resources))
	for i, res := range resources {
		result[i] = ResourceFromDomain(res)
	}

	List(w, result, len(result))
}

// AddTeamResource закрепляет ресурс за командой.
// POST /api/v1/teams/{id}/resources
func (h *Handler) AddTeamResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	var req AddResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	resourceType, err := domain.ParseResourceType(req.ResourceType)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	resourceID := strings.TrimSpace(req.ResourceID)
	if resourceID == "" {
		BadRequest(w, "resource_id is required")
		return
	}

	res := domain.TeamResource{TeamID: id, ResourceType: resourceType, ResourceID: resourceID, AddedAt: h.now().UTC()}
	if err := h.teams.AddResource(r.Context(), &res); HandleRepoError(w, telemetry.FromContext(r.Context()), err, "team not found") {
		return
	}

	Created(w, ResourceFromDomain(res))
}

// RemoveTeamResource открепляет ресурс.
// DELETE /api/v1/teams/{id}/resources/{type}/{resourceId}
func (h *Handler) RemoveTeamResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return
	}

	resourceType, err := domain.ParseResourceType(r.PathValue("type"))
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	err = h.teams.RemoveResource(r.Context(), id, resourceType, r.PathValue("resourceId"))
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "resource not found") {
		return
	}

	NoContent(w)
}

// existingTeam читает ID команды и проверяет, что она существует.
// Пустой список участников несуществующей команды иначе неотличим от 404.
func (h *Handler) existingTeam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequest(w, "invalid team id")
		return 0, false
	}

	_, err = h.teams.GetByID(r.Context(), id)
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "team not found") {
		return 0, false
	}
	return id, true
}
