package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/api/metrics"
	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

type InviteHandler struct {
	service ports.MembershipService
}

func NewInviteHandler(service ports.MembershipService) *InviteHandler {
	return &InviteHandler{service: service}
}

// Create handles POST /v1/groups/:groupId/invites. A registered email is
// enrolled right away (201); otherwise a pending invite is issued (202).
//
// @Summary      Invite someone by email
// @Tags         invites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string         true  "Group id"
// @Param        body     body      inviteRequest  true  "Invitee email and role"
// @Success      201      {object}  inviteResponse  "existing user added"
// @Success      202      {object}  inviteResponse  "invite issued"
// @Failure      409      {object}  errorResponse
// @Router       /v1/groups/{groupId}/invites [post]
func (h *InviteHandler) Create(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req inviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	res, err := h.service.InviteMember(c.Request().Context(), userID, c.Param("groupId"), req.Email, role)
	if err != nil {
		return err
	}
	metrics.InvitesTotal.WithLabelValues(string(res.Status)).Inc()

	status := http.StatusAccepted
	if res.Status == ports.InviteOutcomeAdded {
		status = http.StatusCreated
	}
	return c.JSON(status, toInviteResponse(res))
}

// List handles GET /v1/groups/:groupId/invites.
//
// @Summary      List pending invites
// @Tags         invites
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string  true  "Group id"
// @Success      200      {object}  invitesResponse
// @Router       /v1/groups/{groupId}/invites [get]
func (h *InviteHandler) List(c echo.Context) error {
	invites, err := h.service.ListInvites(c.Request().Context(), c.Param("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invitesResponse{Invites: invites})
}

// Revoke handles DELETE /v1/groups/:groupId/invites/:inviteId.
//
// @Summary      Revoke a pending invite
// @Tags         invites
// @Security     BearerAuth
// @Param        groupId   path  string  true  "Group id"
// @Param        inviteId  path  string  true  "Invite id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      410  {object}  errorResponse
// @Router       /v1/groups/{groupId}/invites/{inviteId} [delete]
func (h *InviteHandler) Revoke(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.service.RevokeInvite(c.Request().Context(), userID, c.Param("groupId"), c.Param("inviteId")); err != nil {
		return err
	}
	metrics.InvitesTotal.WithLabelValues("revoked").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Accept handles POST /v1/invites/:token/accept.
//
// @Summary      Accept an invite
// @Tags         invites
// @Produce      json
// @Security     BearerAuth
// @Param        token  path      string  true  "Invite token"
// @Success      200    {object}  groupResponse
// @Failure      403    {object}  errorResponse  "email mismatch"
// @Failure      404    {object}  errorResponse
// @Failure      409    {object}  errorResponse  "already processed"
// @Failure      410    {object}  errorResponse  "expired"
// @Router       /v1/invites/{token}/accept [post]
func (h *InviteHandler) Accept(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	g, err := h.service.AcceptInvite(c.Request().Context(), userID, c.Param("token"))
	if err != nil {
		return err
	}
	metrics.InvitesTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusOK, groupResponse{Group: g})
}
