package api

import (
	"github.com/gofiber/fiber/v2"
)

type createTableRequest struct {
	TableName   string `json:"table_name"`
	Description string `json:"description,omitempty"`
}

// handleCreateTable handles POST /tables.
func (s *Server) handleCreateTable(c *fiber.Ctx) error {
	var req createTableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.TableName == "" {
		return badRequest(c, "table_name is required")
	}

	desc, err := s.vectors.CreateTable(c.Context(), req.TableName, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(desc)
}

// handleListTables handles GET /tables.
func (s *Server) handleListTables(c *fiber.Ctx) error {
	tables, err := s.vectors.ListTables(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tables)
}

// handleDeleteTable handles DELETE /tables/:name.
func (s *Server) handleDeleteTable(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.vectors.DeleteTable(c.Context(), name); err != nil {
		return fail(c, err)
	}
	return c.JSON(map[string]string{"deleted": name})
}

type switchTableResponse struct {
	Previous string `json:"previous_table"`
	Current  string `json:"current_table"`
}

// handleSwitchTable handles POST /tables/:name/switch.
func (s *Server) handleSwitchTable(c *fiber.Ctx) error {
	previous, current, err := s.vectors.SwitchTable(c.Context(), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(switchTableResponse{Previous: previous, Current: current})
}
