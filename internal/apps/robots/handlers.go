package robots

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/apperror"
	"github.com/volm-robotics/volm-backend/internal/dto"
	"github.com/volm-robotics/volm-backend/internal/handlers"
	"github.com/volm-robotics/volm-backend/internal/identity"
)

type robotStore interface {
	List(ctx context.Context, userID int64) ([]Robot, error)
	Get(ctx context.Context, userID, robotID int64) (*Robot, error)
	Connect(ctx context.Context, userID int64, req *ConnectRequest) (*Robot, error)
	Update(ctx context.Context, userID, robotID int64, req *UpdateRequest) (*Robot, error)
	Control(ctx context.Context, userID, robotID int64, action string) (*Robot, error)
	Delete(ctx context.Context, userID, robotID int64) error
}

type RobotHandler struct {
	robots robotStore
}

func NewRobotHandler(robots robotStore) *RobotHandler {
	return &RobotHandler{robots: robots}
}

func (h *RobotHandler) List(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
	}

	robots, err := h.robots.List(c.UserContext(), userID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(ListResponse{Robots: robots})
}

func (h *RobotHandler) Get(c *fiber.Ctx) error {
	userID, robotID, err := caller(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	robot, err := h.robots.Get(c.UserContext(), userID, robotID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(robot)
}

func (h *RobotHandler) Connect(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
	}

	var req ConnectRequest
	if err := handlers.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	robot, err := h.robots.Connect(c.UserContext(), userID, &req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(robot)
}

func (h *RobotHandler) Update(c *fiber.Ctx) error {
	userID, robotID, err := caller(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	var req UpdateRequest
	if err := handlers.ParseBody(c, &req); err != nil {
		return apperror.Respond(c, err)
	}

	robot, err := h.robots.Update(c.UserContext(), userID, robotID, &req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(robot)
}

func (h *RobotHandler) Control(c *fiber.Ctx) error {
	userID, err := identity.UserID(c)
	if err != nil {
		return apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
	}

	var req ControlRequest
	if err := handlers.ParseBody(c, &req); err != nil {
		if errors.Is(err, handlers.ErrInvalidBody) {
			return apperror.Respond(c, err)
		}
		// A non-string action is just another unknown action.
		return apperror.Respond(c, ErrInvalidAction)
	}
	if _, ok := controlActions[req.Action]; !ok {
		return apperror.Respond(c, ErrInvalidAction)
	}

	robotID, err := parseRobotID(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	robot, err := h.robots.Control(c.UserContext(), userID, robotID, req.Action)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(robot)
}

func (h *RobotHandler) Delete(c *fiber.Ctx) error {
	userID, robotID, err := caller(c)
	if err != nil {
		return apperror.Respond(c, err)
	}

	if err := h.robots.Delete(c.UserContext(), userID, robotID); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Robot deleted successfully"})
}

// caller resolves the user from the token and the robot id from the path.
func caller(c *fiber.Ctx) (int64, int64, error) {
	userID, err := identity.UserID(c)
	if err != nil {
		return 0, 0, apperror.Unauthorized("Unauthorized")
	}

	id, err := parseRobotID(c)
	if err != nil {
		return 0, 0, err
	}
	return userID, id, nil
}

// parseRobotID parses the :id path segment. An id that is not a positive integer
// cannot name any robot.
func parseRobotID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrRobotNotFound
	}
	return id, nil
}
