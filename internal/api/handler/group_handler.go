package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/api/metrics"
	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// GroupHandler serves group lifecycle and roster routes. Admin-only routes
// are guarded by middleware before they reach it.
type GroupHandler struct {
	service ports.MembershipService
}

func NewGroupHandler(service ports.MembershipService) *GroupHandler {
	return &GroupHandler{service: service}
}

// Create handles POST /v1/groups.
//
// @Summary      Create a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createGroupRequest  true  "Group name"
// @Success      201   {object}  groupResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/groups [post]
func (h *GroupHandler) Create(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req createGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	g, err := h.service.CreateGroup(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("group_created").Inc()
	return c.JSON(http.StatusCreated, groupResponse{Group: g})
}

// Mine handles GET /v1/groups/mine.
//
// @Summary      List my groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  membershipsResponse
// @Router       /v1/groups/mine [get]
func (h *GroupHandler) Mine(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	rows, err := h.service.ListMyGroups(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, membershipsResponse{Groups: rows})
}

// Join handles POST /v1/groups/join.
//
// @Summary      Join a group by id or join code
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      joinGroupRequest  true  "Group id or join code"
// @Success      200   {object}  groupResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/groups/join [post]
func (h *GroupHandler) Join(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req joinGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	g, err := h.service.JoinByIDOrCode(c.Request().Context(), userID, req.GroupIDOrCode)
	if err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("joined").Inc()
	return c.JSON(http.StatusOK, groupResponse{Group: g})
}

// Get handles GET /v1/groups/:groupId.
//
// @Summary      Get a group with members and invites
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string  true  "Group id"
// @Success      200      {object}  groupResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/groups/{groupId} [get]
func (h *GroupHandler) Get(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	g, err := h.service.GetGroup(c.Request().Context(), userID, c.Param("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groupResponse{Group: g})
}

// Delete handles DELETE /v1/groups/:groupId.
//
// @Summary      Delete a group and everything in it
// @Tags         groups
// @Security     BearerAuth
// @Param        groupId  path  string  true  "Group id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Router       /v1/groups/{groupId} [delete]
func (h *GroupHandler) Delete(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteGroup(c.Request().Context(), userID, c.Param("groupId")); err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("group_deleted").Inc()
	return c.NoContent(http.StatusNoContent)
}

// AddMember handles POST /v1/groups/:groupId/members.
//
// @Summary      Add a registered user to the group
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string            true  "Group id"
// @Param        body     body      addMemberRequest  true  "Member email and role"
// @Success      201      {object}  groupResponse
// @Failure      404      {object}  errorResponse
// @Failure      409      {object}  errorResponse
// @Router       /v1/groups/{groupId}/members [post]
func (h *GroupHandler) AddMember(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	g, err := h.service.AddMember(c.Request().Context(), userID, c.Param("groupId"), req.Email, role)
	if err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("added").Inc()
	return c.JSON(http.StatusCreated, groupResponse{Group: g})
}

// RemoveMember handles DELETE /v1/groups/:groupId/members/:userId.
//
// @Summary      Remove a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string  true  "Group id"
// @Param        userId   path      string  true  "Member user id"
// @Success      200      {object}  groupResponse
// @Failure      404      {object}  errorResponse
// @Failure      409      {object}  errorResponse  "would remove the last admin"
// @Router       /v1/groups/{groupId}/members/{userId} [delete]
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	g, err := h.service.RemoveMember(c.Request().Context(), userID, c.Param("groupId"), c.Param("userId"))
	if err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("removed").Inc()
	return c.JSON(http.StatusOK, groupResponse{Group: g})
}

// ChangeRole handles PATCH /v1/groups/:groupId/members/:userId.
//
// @Summary      Change a member's role
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string             true  "Group id"
// @Param        userId   path      string             true  "Member user id"
// @Param        body     body      changeRoleRequest  true  "New role"
// @Success      200      {object}  groupResponse
// @Failure      409      {object}  errorResponse  "would demote the last admin"
// @Router       /v1/groups/{groupId}/members/{userId} [patch]
func (h *GroupHandler) ChangeRole(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	g, err := h.service.ChangeRole(c.Request().Context(), userID, c.Param("groupId"), c.Param("userId"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("role_changed").Inc()
	return c.JSON(http.StatusOK, groupResponse{Group: g})
}

// Leave handles POST /v1/groups/:groupId/leave.
//
// @Summary      Leave a group
// @Tags         members
// @Security     BearerAuth
// @Param        groupId  path  string  true  "Group id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse  "sole admin"
// @Router       /v1/groups/{groupId}/leave [post]
func (h *GroupHandler) Leave(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	if err := h.service.LeaveGroup(c.Request().Context(), userID, c.Param("groupId")); err != nil {
		return err
	}
	metrics.MembershipChangesTotal.WithLabelValues("left").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Categories handles GET /v1/groups/:groupId/categories.
//
// @Summary      List group categories
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        groupId  path      string  true  "Group id"
// @Success      200      {object}  categoriesResponse
// @Router       /v1/groups/{groupId}/categories [get]
func (h *GroupHandler) Categories(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	cats, err := h.service.ListCategories(c.Request().Context(), userID, c.Param("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: cats})
}
