package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub  string `json:"sub"`  // user ID
	Role string `json:"role"` // platform role: ADMIN | OWNER | BROKER | TENANT | ...
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// IssueToken signs a JWT (7 days) for the given user and role.
func IssueToken(userID, role string) (string, error) {
	claims := &Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer JWT and injects userID and role into the
// request context.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		c.Locals("userID", claims.Sub)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// MustUserID reads the authenticated user ID from context or panics
// (programming error: handler mounted without RequireAuth).
func MustUserID(c *fiber.Ctx) string {
	if v := c.Locals("userID"); v != nil {
		return v.(string)
	}
	panic(errors.New("user not in context"))
}

// MustRole reads the authenticated user role from context or panics.
func MustRole(c *fiber.Ctx) string {
	if v := c.Locals("role"); v != nil {
		return v.(string)
	}
	panic(errors.New("role not in context"))
}

// RequireRole ensures the authenticated user has one of the given roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := models.Role(MustRole(c))
		for _, r := range roles {
			if got == r {
				return c.Next()
			}
		}
		return fiber.ErrForbidden
	}
}

/* =========================== Error Formatting =========================== */

// statusMessage maps an HTTP status code to the Spanish default message used
// when a handler returns a bare status error.
func statusMessage(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "Solicitud inválida"
	case fiber.StatusUnauthorized:
		return "No autorizado"
	case fiber.StatusForbidden:
		return "No tienes permisos para realizar esta acción"
	case fiber.StatusNotFound:
		return "Recurso no encontrado"
	case fiber.StatusConflict:
		return "Conflicto de versión"
	default:
		return "Error interno del servidor"
	}
}

// ErrorHandler is the global Fiber error handler. Every error becomes the
// {"error": "..."} shape the clients expect.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := statusMessage(code)

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if strings.TrimSpace(e.Message) != "" && e.Message != fiber.ErrInternalServerError.Message &&
			e.Message != fiber.ErrBadRequest.Message && e.Message != fiber.ErrUnauthorized.Message &&
			e.Message != fiber.ErrForbidden.Message && e.Message != fiber.ErrNotFound.Message &&
			e.Message != fiber.ErrConflict.Message {
			msg = e.Message
		} else {
			msg = statusMessage(code)
		}
	}

	return c.Status(code).JSON(models.ErrorResponse{Error: msg})
}
