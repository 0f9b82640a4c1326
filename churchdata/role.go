package churchdata

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/service"
)

// menuItemsRelation is the named relation ReplaceMenuItems relinks.
const menuItemsRelation = "menuItems"

// RoleService manages permission roles and their menu item grants.
type RoleService struct {
	*service.Service[Role]
	repo *repository.Base[Role]
}

func newRoleService(deps Deps) *RoleService {
	cfg := adapter.Config[Role]{
		Table:        "roles",
		DefaultOrder: &query.Order{Column: "name"},
		DefaultRelationships: []query.Relationship{
			{
				Table:      "role_menu_items",
				ForeignKey: "role_id",
				Nested: []query.Relationship{
					{Table: "menu_items", ForeignKey: "menu_item_id", Select: []string{"id", "name", "path", "icon"}},
				},
			},
		},
		Hooks: adapter.Hooks[Role]{
			OnBeforeDelete: func(ctx context.Context, id string) error {
				assigned, err := hasDependentRows(ctx, deps, "user_roles", "role_id", id)
				if err != nil {
					return err
				}
				if assigned {
					return apperr.Guard("roles", "Cannot delete role with assigned users")
				}
				return nil
			},
		},
		Relations: map[string]adapter.Relation{
			menuItemsRelation: {
				Kind:           adapter.ManyToMany,
				JoinTable:      "role_menu_items",
				ForeignKey:     "role_id",
				JoinForeignKey: "menu_item_id",
			},
		},
	}

	a := adapter.New(deps.Client, deps.Tenants, cfg, deps.Logger)
	repo := repository.New(a, repository.Hooks[Role]{
		BeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
			data = formatRole(data)
			if err := validateRole(data); err != nil {
				return nil, err
			}
			return data, nil
		},
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			return formatRole(data), nil
		},
	})

	return &RoleService{
		Service: service.New[Role](repo, deps.Cache, deps.Notifier, deps.Logger),
		repo:    repo,
	}
}

// ReplaceMenuItems relinks a role's menu grants to exactly the given menu
// item ids. An empty list leaves the grants unchanged; ClearMenuItems
// removes them all.
func (s *RoleService) ReplaceMenuItems(ctx context.Context, roleID string, menuItemIDs []string) error {
	if err := s.repo.Adapter().ReplaceRelation(ctx, menuItemsRelation, roleID, menuItemIDs); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// ClearMenuItems removes every menu grant from the role.
func (s *RoleService) ClearMenuItems(ctx context.Context, roleID string) error {
	if err := s.repo.Adapter().ClearRelation(ctx, menuItemsRelation, roleID); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

func formatRole(data entity.Partial) entity.Partial {
	out := entity.Strip(data, "role_menu_items")
	if name, ok := out["name"].(string); ok {
		out["name"] = strings.TrimSpace(name)
	}
	return out
}

func validateRole(data entity.Partial) error {
	name, _ := data["name"].(string)
	if err := validation.Validate(name, validation.Required.Error("Role name is required")); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}
