package permission

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

// CustomCheck is an application-supplied predicate hook. Returning an error
// counts as a deny; the error is logged, never surfaced.
type CustomCheck func(ctx context.Context, user *datamodel.User, r *http.Request) (bool, error)

// Requirement is the capability demanded by one check. Exactly one of the
// dispatch shapes should be set: Custom, CheckResource, Code, or
// Module+Action. A requirement is attached to a route at registration time
// and inspected by the authorization gate.
type Requirement struct {
	Code          string
	Module        string
	Action        string
	Resource      string
	ResourceParam string
	CheckResource bool
	Custom        CustomCheck
}

// Describe names the capability for deny messages.
func (c Requirement) Describe() string {
	switch {
	case c.Custom != nil:
		return "custom check"
	case c.CheckResource:
		action := c.Action
		if action == "" {
			action = ActionRead
		}
		return "resource access (" + action + ")"
	case c.Code != "":
		return c.Code
	case c.Module != "" && c.Action != "":
		return GenerateCode(c.Module, c.Action)
	default:
		return "unknown permission"
	}
}

type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// Requirements combines one or more checks under AND or OR.
type Requirements struct {
	Items    []Requirement
	Operator Operator
}

func (rs Requirements) IsEmpty() bool { return len(rs.Items) == 0 }

// Describe joins the member descriptions with the operator word, for the
// Forbidden message.
func (rs Requirements) Describe() string {
	parts := make([]string, len(rs.Items))
	for i, item := range rs.Items {
		parts[i] = item.Describe()
	}
	sep := " and "
	if rs.Operator == OperatorOr {
		sep = " or "
	}
	return strings.Join(parts, sep)
}

// Require demands a single permission code.
func Require(code string) Requirements {
	return Requirements{Items: []Requirement{{Code: code}}, Operator: OperatorAnd}
}

// RequireModule demands a module:action capability.
func RequireModule(module, action string) Requirements {
	return Requirements{Items: []Requirement{{Module: module, Action: action}}, Operator: OperatorAnd}
}

// RequireResource demands resource-level access, substituting the named
// route parameter into the resource template before resolution.
func RequireResource(action, resourceParam string) Requirements {
	return Requirements{
		Items:    []Requirement{{CheckResource: true, Action: action, ResourceParam: resourceParam}},
		Operator: OperatorAnd,
	}
}

// All combines checks so every one must pass.
func All(items ...Requirement) Requirements {
	return Requirements{Items: items, Operator: OperatorAnd}
}

// Any combines checks so one passing suffices.
func Any(items ...Requirement) Requirements {
	return Requirements{Items: items, Operator: OperatorOr}
}

// Authorize evaluates the requirement set for the principal. A nil error
// means allow. Denies surface as Forbidden with a message listing every
// required check; store failures surface as internal errors.
func (e *Engine) Authorize(ctx context.Context, user *datamodel.User, rs Requirements, r *http.Request) error {
	if rs.IsEmpty() {
		return nil
	}

	results := make([]bool, len(rs.Items))
	errs := make([]error, len(rs.Items))

	// Checks evaluate concurrently; the combinator decides afterwards.
	var wg sync.WaitGroup
	for i := range rs.Items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.checkOne(ctx, user, rs.Items[i], r)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if appErr, ok := internal.IsAppError(err); ok {
			return appErr
		}
		e.logger.Error("permission check failed", "requirement", rs.Items[i].Describe(), "error", err)
		return internal.NewInternalError("permission check failed", err)
	}

	allowed := rs.Operator != OperatorOr
	for _, ok := range results {
		if rs.Operator == OperatorOr {
			allowed = allowed || ok
		} else {
			allowed = allowed && ok
		}
	}

	if !allowed {
		return internal.NewForbiddenError("insufficient permission, requires: "+rs.Describe(), internal.ErrCodePermissionDenied)
	}
	return nil
}

func (e *Engine) checkOne(ctx context.Context, user *datamodel.User, c Requirement, r *http.Request) (bool, error) {
	switch {
	case c.Custom != nil:
		ok, err := c.Custom(ctx, user, r)
		if err != nil {
			// A failing hook denies; its cause stays internal.
			e.logger.Warn("custom permission check errored", "error", err)
			return false, nil
		}
		return ok, nil

	case c.CheckResource:
		resource := resolveResource(c, r)
		action := c.Action
		if action == "" && r != nil {
			action = ActionFromMethod(r.Method)
		}
		if action == "" {
			action = ActionRead
		}
		return e.CanAccessResourceDynamic(ctx, user, resource, action)

	case c.Code != "":
		return e.HasDynamicPermission(ctx, user, c.Code)

	case c.Module != "" && c.Action != "":
		return e.HasDynamicModulePermission(ctx, user, c.Module, c.Action)

	default:
		return false, internal.NewForbiddenError("invalid permission requirement", internal.ErrCodeInvalidRequirement)
	}
}

// resolveResource materializes the resource string for a check: the
// configured template, or the matched route pattern, or the raw request
// path; then every captured route parameter is substituted in.
func resolveResource(c Requirement, r *http.Request) string {
	resource := c.Resource

	var rctx *chi.Context
	if r != nil {
		rctx = chi.RouteContext(r.Context())
	}

	if resource == "" {
		if rctx != nil && rctx.RoutePattern() != "" {
			resource = rctx.RoutePattern()
		} else if r != nil {
			resource = r.URL.Path
		}
	}

	if rctx == nil || resource == "" {
		return resource
	}

	if c.ResourceParam != "" {
		if value := rctx.URLParam(c.ResourceParam); value != "" {
			resource = substituteParam(resource, c.ResourceParam, value)
		}
	}

	for i, key := range rctx.URLParams.Keys {
		value := rctx.URLParams.Values[i]
		if key == "" || value == "" {
			continue
		}
		resource = substituteParam(resource, key, value)
	}

	return resource
}

// substituteParam replaces both :name and {name} placeholder styles, so
// templates written either way resolve against chi routes.
func substituteParam(resource, name, value string) string {
	resource = strings.ReplaceAll(resource, ":"+name, value)
	return strings.ReplaceAll(resource, "{"+name+"}", value)
}
