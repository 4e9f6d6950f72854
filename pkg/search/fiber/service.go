package fiber

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pbrane/newts/pkg/resource"
	"github.com/pbrane/newts/pkg/search"
	"go.uber.org/zap"
	"net/url"
	"strconv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config returns the fiber configuration the Service is served with. Request and
// response bodies are encoded with jsoniter.
func Config() fiber.Config {
	return fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	}
}

// Service exposes a search.Index over HTTP.
type Service struct {
	index  *search.Index
	logger *zap.Logger
}

func New(index *search.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, logger: logger}
}

func (s *Service) BindTo(parent fiber.Router) {
	router := parent.Group("/resources")
	router.Get("/", s.search)
	router.Put("/", s.put)
	router.Get("/:id", s.get)
	router.Delete("/:id", s.delete)
}

func (s *Service) get(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}
	res, err := s.index.Retrieve(c.UserContext(), id)
	if errors.Is(err, search.NotFound) {
		return s.fail(c, fiber.StatusNotFound, err)
	} else if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	c.Set(fiber.HeaderETag, strconv.Quote(strconv.FormatUint(res.Hash(), 16)))
	return c.JSON(res)
}

func (s *Service) put(c *fiber.Ctx) error {
	var res resource.Resource
	if err := c.BodyParser(&res); err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}
	err := s.index.Index(c.UserContext(), res)
	if errors.Is(err, resource.InvalidArgument) {
		return s.fail(c, fiber.StatusBadRequest, err)
	} else if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) delete(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}
	if err := s.index.Delete(c.UserContext(), id); err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) search(c *fiber.Ctx) error {
	q, err := search.ParseQuery(c.Query("q"))
	if err != nil {
		return s.fail(c, fiber.StatusBadRequest, err)
	}
	results, err := s.index.Search(c.UserContext(), q)
	if err != nil {
		return s.fail(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(results)
}

func (s *Service) parseID(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("id"))
}

func (s *Service) fail(c *fiber.Ctx, status int, err error) error {
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	c.Status(status)
	return c.JSON(fiber.Map{"error": err.Error()})
}
