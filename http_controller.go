package reviews

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type ControllerRoutes struct {
	Home              string
	Register          string
	Login             string
	Game              string
	Dashboard         string
	DashboardArticles string
	DashboardReviews  string
	Logout            string
	APIRegister       string
	APILogin          string
	APIAddArticle     string
	APIUserReview     string
}

type ControllerViews struct {
	Home          string
	Register      string
	Login         string
	Article       string
	Dashboard     string
	AdminArticles string
	AdminReviews  string
	NotFound      string
}

// Controller serves the site pages and the JSON API
type Controller struct {
	Debug          bool
	Logger         Logger
	Repo           RepositoryManager
	Sessions       SessionManager
	Auther         *RouteAuthenticator
	Registrar      *RegisterUserHandler
	Routes         *ControllerRoutes
	Views          *ControllerViews
	PageSize       int
	ReviewPageSize int
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:         defLogger{},
		PageSize:       DefaultPageSize,
		ReviewPageSize: 50,
		Routes: &ControllerRoutes{
			Home:              "/",
			Register:          "/register",
			Login:             "/login",
			Game:              "/games/:id",
			Dashboard:         "/dashboard",
			DashboardArticles: "/dashboard/articles",
			DashboardReviews:  "/dashboard/reviews",
			Logout:            "/dashboard/logout",
			APIRegister:       "/api/register",
			APILogin:          "/api/login",
			APIAddArticle:     "/api/add_article",
			APIUserReview:     "/api/user_review",
		},
		Views: &ControllerViews{
			Home:          "home",
			Register:      "register",
			Login:         "login",
			Article:       "article",
			Dashboard:     "dashboard",
			AdminArticles: "admin_articles",
			AdminReviews:  "admin_reviews",
			NotFound:      "errors/404",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func (a *Controller) WithLogger(l Logger) *Controller {
	a.Logger = ensureLogger(l)
	return a
}

// RegisterRoutes mounts every page and API route. The auth middleware must
// already be installed on app.
func RegisterRoutes[T any](app router.Router[T], opts ...ControllerOption) *Controller {
	controller := NewController(opts...)
	r := controller.Routes
	guard := controller.Auther.RequireUser()
	apiGuard := controller.Auther.RequireUserAPI()
	toDashboard := controller.Auther.RedirectAuthenticated(r.Dashboard)

	app.Get(r.Home, controller.HomeShow).SetName("home.get")
	app.Get(r.Register, controller.RegistrationShow, toDashboard).SetName("register.get")
	app.Get(r.Login, controller.LoginShow, toDashboard).SetName("login.get")
	app.Get(r.Game, controller.GameShow).SetName("game.get")

	app.Get(r.Dashboard, controller.DashboardShow, guard).SetName("dashboard.get")
	app.Get(r.DashboardArticles, controller.DashboardArticlesShow, guard).SetName("dashboard-articles.get")
	app.Get(r.DashboardReviews, controller.DashboardReviewsShow, guard).SetName("dashboard-reviews.get")
	app.Get(r.Logout, controller.LogOut, guard).SetName("logout.get")

	app.Post(r.APIRegister, controller.RegistrationCreate).SetName("api-register.post")
	app.Post(r.APILogin, controller.LoginPost).SetName("api-login.post")
	app.Post(r.APIAddArticle, controller.ArticleCreate, apiGuard).SetName("api-add-article.post")
	app.Post(r.APIUserReview, controller.UserReviewCreate, apiGuard).SetName("api-user-review.post")

	return controller
}

func (a *Controller) render(ctx router.Context, name string, data router.ViewContext) error {
	return ctx.Render(name, MergeTemplateData(ctx, data))
}

func (a *Controller) HomeShow(ctx router.Context) error {
	articles, err := a.Repo.Articles().ListRecent(ctx.Context(), a.PageSize)
	if err != nil {
		a.Logger.Error("home list articles", "error", err)
		return a.sendError(ctx, err)
	}

	return a.render(ctx, a.Views.Home, router.ViewContext{
		"articles": articles,
	})
}

func (a *Controller) RegistrationShow(ctx router.Context) error {
	return a.render(ctx, a.Views.Register, router.ViewContext{})
}

func (a *Controller) LoginShow(ctx router.Context) error {
	return a.render(ctx, a.Views.Login, router.ViewContext{})
}

func (a *Controller) GameShow(ctx router.Context) error {
	reqCtx := ctx.Context()

	article, err := a.Repo.Articles().FindByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, ErrArticleNotFound) || errors.Is(err, ErrInvalidIdentifier) {
			return ctx.Status(http.StatusNotFound).Render(a.Views.NotFound, MergeTemplateData(ctx, router.ViewContext{
				"message": ErrArticleNotFound.Message,
			}))
		}
		a.Logger.Error("game show find article", "error", err)
		return a.sendError(ctx, err)
	}

	userReviews, err := a.Repo.UserReviews().ListByPost(reqCtx, article.ID, a.ReviewPageSize)
	if err != nil {
		a.Logger.Error("game show list reviews", "error", err)
		return a.sendError(ctx, err)
	}

	return a.render(ctx, a.Views.Article, router.ViewContext{
		"date":        FormatReviewDate(article.CreatedAt),
		"article":     article,
		"review":      CurrentSession(ctx).IsAuthenticated(),
		"userReviews": userReviews,
	})
}

func (a *Controller) DashboardShow(ctx router.Context) error {
	return a.render(ctx, a.Views.Dashboard, router.ViewContext{
		"dashboard": true,
	})
}

func (a *Controller) DashboardArticlesShow(ctx router.Context) error {
	return a.render(ctx, a.Views.AdminArticles, router.ViewContext{
		"dashboard": true,
	})
}

// DashboardReviewsShow lists the user's own reviews, or every review for admins
func (a *Controller) DashboardReviewsShow(ctx router.Context) error {
	user := CurrentSession(ctx).CurrentUser()

	var (
		userReviews []*UserReview
		err         error
	)
	if user.IsAdmin() {
		userReviews, err = a.Repo.UserReviews().ListAll(ctx.Context(), a.ReviewPageSize)
	} else {
		userReviews, err = a.Repo.UserReviews().ListByOwner(ctx.Context(), user.ID, a.ReviewPageSize)
	}

	if err != nil {
		a.Logger.Error("dashboard list reviews", "error", err)
		return a.sendError(ctx, err)
	}

	return a.render(ctx, a.Views.AdminReviews, router.ViewContext{
		"dashboard":   true,
		"userReviews": userReviews,
	})
}

// LogOut invalidates the live session. The cookie is left in place: it no
// longer matches the stored token.
func (a *Controller) LogOut(ctx router.Context) error {
	if err := a.Sessions.Logout(ctx.Context(), CurrentSession(ctx)); err != nil {
		a.Logger.Error("logout", "error", err)
		return a.sendError(ctx, err)
	}
	return ctx.Redirect(a.Routes.Home, http.StatusFound)
}

func (a *Controller) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterUserMessage)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(RegisterUserMessage{Email: payload.Email, Username: payload.Username}))
	}

	user, err := a.Registrar.Execute(ctx.Context(), *payload)
	if err != nil {
		a.Logger.Error("register user", "error", err)
		return a.sendError(ctx, err)
	}

	a.Auther.SetSessionCookie(ctx, user.SessionToken)
	return ctx.SendString("ok")
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (a *Controller) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	_, token, err := a.Sessions.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryAuth {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"message": richErr.Message,
			})
		}
		a.Logger.Error("login", "error", err)
		return a.sendError(ctx, err)
	}

	a.Auther.SetSessionCookie(ctx, token)
	return ctx.SendString("ok")
}

// ArticlePayload is the add article request body
type ArticlePayload struct {
	Title  string `json:"title" form:"title"`
	Review string `json:"review" form:"review"`
	Rating int    `json:"rating" form:"rating"`
}

func (r ArticlePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Review, validation.Required, validation.Length(1, 5000)),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

func (a *Controller) ArticleCreate(ctx router.Context) error {
	user := CurrentSession(ctx).CurrentUser()

	payload := new(ArticlePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	_, err := a.Repo.Articles().Publish(ctx.Context(), &Article{
		OwnerID:       user.ID,
		OwnerUsername: user.Username,
		Title:         payload.Title,
		Review:        payload.Review,
		Rating:        payload.Rating,
	})
	if err != nil {
		a.Logger.Error("add article", "error", err)
		return a.sendError(ctx, err)
	}

	return ctx.Status(router.StatusOK).SendString("")
}

// UserReviewPayload is the user review request body. ID is the article id.
type UserReviewPayload struct {
	ID        string `json:"id" form:"id"`
	TitlePost string `json:"titlePost" form:"titlePost"`
	Review    string `json:"review" form:"review"`
	Rating    int    `json:"rating" form:"rating"`
}

func (r UserReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Review, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

func (a *Controller) UserReviewCreate(ctx router.Context) error {
	reqCtx := ctx.Context()
	user := CurrentSession(ctx).CurrentUser()

	payload := new(UserReviewPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	article, err := a.Repo.Articles().FindByID(reqCtx, payload.ID)
	if err != nil {
		return a.sendError(ctx, err)
	}

	titlePost := payload.TitlePost
	if titlePost == "" {
		titlePost = article.Title
	}

	_, err = a.Repo.UserReviews().Post(reqCtx, &UserReview{
		PostID:        article.ID,
		OwnerID:       user.ID,
		OwnerUsername: user.Username,
		TitlePost:     titlePost,
		Review:        payload.Review,
		Rating:        payload.Rating,
	})
	if err != nil {
		a.Logger.Error("add user review", "error", err)
		return a.sendError(ctx, err)
	}

	return ctx.Status(router.StatusOK).SendString("")
}

// sendError writes err as JSON. Internal failures are 500, everything else
// is reported as a bad request with the underlying message.
func (a *Controller) sendError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, err.Error())
	}

	status := router.StatusBadRequest
	message := richErr.Message
	if richErr.Category == goerrors.CategoryInternal {
		status = router.StatusInternalServerError
		if !a.Debug {
			message = "internal server error"
		}
	}

	return ctx.JSON(status, map[string]string{
		"message":   message,
		"text_code": richErr.TextCode,
	})
}
