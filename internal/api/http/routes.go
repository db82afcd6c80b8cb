package httpapi

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-area/internal/area"
)

var validate = validator.New()

// ErrorHandler renders every error as the JSON error body used by the API.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. When authToken is
// not empty every route requires the token as a bearer credential.
func RegisterRoutes(app *fiber.App, service *area.Service, authToken string) {
	auth := authMiddleware(authToken)

	app.Get("/all-cities", auth, func(c *fiber.Ctx) error {
		return c.JSON(service.AllCities())
	})

	app.Get("/cities-by-tag", auth, func(c *fiber.Ctx) error {
		var q tagQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"cities": service.CitiesByTag(q.Tag, q.isActive),
		})
	})

	app.Get("/distance", auth, func(c *fiber.Ctx) error {
		q := distanceQuery{From: c.Query("from"), To: c.Query("to")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := service.Distance(q.From, q.To)
		if err != nil {
			if errors.Is(err, area.ErrInvalidOrigin) || errors.Is(err, area.ErrInvalidDestination) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute distance")
		}

		return c.JSON(res)
	})

	app.Get("/area", auth, func(c *fiber.Ctx) error {
		var q areaQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := service.Submit(c.UserContext(), q.From, q.radiusKm)
		if err != nil {
			if errors.Is(err, area.ErrInvalidOrigin) || errors.Is(err, area.ErrInvalidRadius) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to start area computation")
		}

		return c.Status(fiber.StatusAccepted).JSON(loc)
	})

	app.Get("/area-result/:guid", auth, func(c *fiber.Ctx) error {
		cities, err := service.Poll(c.Params("guid"))
		if err != nil {
			switch {
			case errors.Is(err, area.ErrNotReady):
				return c.Status(fiber.StatusAccepted).Send(nil)
			case errors.Is(err, area.ErrNoSuchJob):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, area.ErrJobFailed):
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch area result")
			}
		}

		return c.JSON(fiber.Map{
			"cities": cities,
		})
	})
}

func authMiddleware(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		key, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).SendString("Authentication Error.")
		}
		return c.Next()
	}
}

// bearerToken takes the token from a "Bearer" Authorization header, scheme
// matched in any case, or from the access_token query parameter.
func bearerToken(c *fiber.Ctx) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
	if found && strings.EqualFold(scheme, "bearer") {
		key = strings.TrimSpace(key)
		return key, key != ""
	}

	key = c.Query("access_token")
	return key, key != ""
}

// tagQuery holds query parameters for the tag filter endpoint.
type tagQuery struct {
	Tag      string `validate:"required"`
	IsActive string `validate:"omitempty,boolean"`

	isActive bool
}

func (q *tagQuery) bind(c *fiber.Ctx) error {
	q.Tag = c.Query("tag")
	q.IsActive = c.Query("isActive")

	if err := validate.Struct(q); err != nil {
		return err
	}

	if q.IsActive != "" {
		q.isActive, _ = strconv.ParseBool(q.IsActive)
	}
	return nil
}

// distanceQuery holds query parameters for the distance endpoint.
type distanceQuery struct {
	From string `validate:"required"`
	To   string `validate:"required"`
}

// areaQuery holds query parameters for starting an area computation.
type areaQuery struct {
	From     string `validate:"required"`
	Distance string `validate:"required"`

	radiusKm float64
}

func (q *areaQuery) bind(c *fiber.Ctx) error {
	q.From = c.Query("from")
	q.Distance = c.Query("distance")

	if err := validate.Struct(q); err != nil {
		return err
	}

	d, err := strconv.ParseFloat(q.Distance, 64)
	if err != nil {
		return errors.New("distance must be a number of kilometres")
	}
	q.radiusKm = d
	return nil
}
