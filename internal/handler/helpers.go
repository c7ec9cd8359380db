package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exeval-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	result := uint(parsed)
	return &result, nil
}

func parseQueryInt(c *fiber.Ctx, key string) (*int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case uint:
			actor.ID = id
		case int:
			if id > 0 {
				actor.ID = uint(id)
			}
		}
	}
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			actor.Role = strings.ToLower(strings.TrimSpace(role))
		}
	}
	return actor
}
