package handler

import (
	"github.com/gofiber/fiber/v3"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps) error
}
