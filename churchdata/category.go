package churchdata

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/service"
)

// CategoryService manages tenant-configurable lookup values. Each category
// row belongs to one lookup type (income, expense, membership, ...).
type CategoryService struct {
	*service.Service[Category]
}

func newCategoryService(deps Deps) *CategoryService {
	cfg := adapter.Config[Category]{
		Table:        "categories",
		DefaultOrder: &query.Order{Column: "name"},
		Hooks: adapter.Hooks[Category]{
			OnBeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
				if _, ok := data["is_active"]; !ok {
					data = entity.Strip(data)
					data["is_active"] = true
				}
				return data, nil
			},
		},
	}

	a := adapter.New(deps.Client, deps.Tenants, cfg, deps.Logger)
	repo := repository.New(a, repository.Hooks[Category]{
		BeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
			data = formatCategory(data)
			if err := validateCategory(data); err != nil {
				return nil, err
			}
			return data, nil
		},
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			return formatCategory(data), nil
		},
	})

	return &CategoryService{Service: service.New[Category](repo, deps.Cache, deps.Notifier, deps.Logger)}
}

// ByType returns the categories of one lookup type, cached like any other
// list read.
func (s *CategoryService) ByType(ctx context.Context, categoryType string) []Category {
	result := s.Find(ctx, query.Options{
		Filters: query.Filters{"type": categoryType},
	})
	return result.Data
}

// ActiveByType returns the active categories of one lookup type.
func (s *CategoryService) ActiveByType(ctx context.Context, categoryType string) []Category {
	return lo.Filter(s.ByType(ctx, categoryType), func(c Category, _ int) bool {
		return c.IsActive == nil || *c.IsActive
	})
}

func formatCategory(data entity.Partial) entity.Partial {
	out := entity.Strip(data)
	if name, ok := out["name"].(string); ok {
		out["name"] = strings.TrimSpace(name)
	}
	if t, ok := out["type"].(string); ok {
		out["type"] = strings.ToLower(strings.TrimSpace(t))
	}
	return out
}

func validateCategory(data entity.Partial) error {
	var messages []string

	name, _ := data["name"].(string)
	if err := validation.Validate(name, validation.Required.Error("Category name is required")); err != nil {
		messages = append(messages, err.Error())
	}

	categoryType, _ := data["type"].(string)
	if err := validation.Validate(categoryType, validation.Required.Error("Category type is required")); err != nil {
		messages = append(messages, err.Error())
	}

	if len(messages) > 0 {
		return apperr.Validation(messages...)
	}
	return nil
}
