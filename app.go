package reviews

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
)

// DefaultLayout wraps every rendered page
const DefaultLayout = "layouts/main"

// NewViewEngine returns the django engine over the embedded views
func NewViewEngine(reload bool) *django.Engine {
	engine := django.NewFileSystem(http.FS(GetViewsFS()), ".html")
	engine.AddFuncMap(TemplateHelpers())
	engine.Reload(reload)
	return engine
}

// AppConfig configures NewApp
type AppConfig struct {
	Views       fiber.Views
	ViewsLayout string
	Logger      Logger
	AccessLog   bool
}

// NewApp builds the fiber app with the shared middleware stack and static
// assets. Routes are mounted through NewServer and RegisterRoutes.
func NewApp(cfg AppConfig) *fiber.App {
	lgr := ensureLogger(cfg.Logger)

	layout := cfg.ViewsLayout
	if layout == "" {
		layout = DefaultLayout
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-reviews",
		Views:                 cfg.Views,
		ViewsLayout:           layout,
		PassLocalsToViews:     true,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(lgr),
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	public := http.FS(GetPublicFS())
	app.Use("/css", filesystem.New(filesystem.Config{Root: public, PathPrefix: "css"}))
	app.Use("/js", filesystem.New(filesystem.Config{Root: public, PathPrefix: "js"}))

	return app
}

// NewServer wraps app in the go-router fiber adapter
func NewServer(app *fiber.App) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return app
	})
}

// ErrorHandler logs unhandled errors. API routes get JSON, pages get the
// error templates.
func ErrorHandler(lgr Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			lgr.Error("unhandled request error", "path", c.Path(), "error", err)
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(fiber.Map{"message": message})
		}

		view := "errors/500"
		if code == fiber.StatusNotFound {
			view = "errors/404"
		}

		state := sessionFromLocals(c.Locals(SessionLocalsKey), c.UserContext())
		data := mergeSessionTemplateData(state, router.ViewContext{"message": message})
		if rerr := c.Status(code).Render(view, fiber.Map(data)); rerr != nil {
			lgr.Error("render error page", "view", view, "error", rerr)
			return c.Status(code).SendString(message)
		}
		return nil
	}
}
