package reviews

import (
	"maps"
	"time"

	"github.com/goliatone/go-router"
)

var TemplateUserKey = "current_user"

// ReviewDateLayout renders dates as MM/DD/YY
const ReviewDateLayout = "01/02/06"

// TemplateHelpers returns global values and filters for the view engine.
//
// In templates:
//
//	{% if is_authenticated %}
//	{{ review_date(review.CreatedAt) }}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"roles": map[string]string{
			"ordinary": RoleOrdinary,
			"admin":    RoleAdmin,
		},
		"review_date": FormatReviewDate,
	}
}

// TemplateData builds the per request template context from the session
// state attached by the auth middleware
func TemplateData(ctx router.Context) router.ViewContext {
	return sessionTemplateData(CurrentSession(ctx))
}

// MergeTemplateData merges request data over the session template data
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	return mergeSessionTemplateData(CurrentSession(ctx), data)
}

func sessionTemplateData(state SessionState) router.ViewContext {
	user := state.CurrentUser()
	return router.ViewContext{
		TemplateUserKey:    user,
		"is_authenticated": state.IsAuthenticated(),
		"isAdmin":          user.IsAdmin(),
	}
}

func mergeSessionTemplateData(state SessionState, data router.ViewContext) router.ViewContext {
	out := sessionTemplateData(state)
	maps.Copy(out, data)
	return out
}

// FormatReviewDate formats t with ReviewDateLayout
func FormatReviewDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(ReviewDateLayout)
}
