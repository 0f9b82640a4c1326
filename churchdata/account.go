package churchdata

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/service"
)

// AccountService manages the chart of accounts.
type AccountService struct {
	*service.Service[Account]
	repo *repository.Base[Account]
}

func newAccountService(deps Deps) *AccountService {
	cfg := adapter.Config[Account]{
		Table:        "accounts",
		DefaultOrder: &query.Order{Column: "account_number"},
		Hooks: adapter.Hooks[Account]{
			OnBeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
				// New accounts are active unless the caller says otherwise.
				if _, ok := data["is_active"]; !ok {
					data = entity.Strip(data)
					data["is_active"] = true
				}
				return data, nil
			},
			OnBeforeDelete: func(ctx context.Context, id string) error {
				inUse, err := hasDependentRows(ctx, deps, "transactions", "account_id", id)
				if err != nil {
					return err
				}
				if inUse {
					return apperr.Guard("accounts", "Cannot delete account with existing financial transactions")
				}
				return nil
			},
		},
		ErrorMessages: map[string]string{
			"23505": "An account with this account number already exists.",
		},
	}

	a := adapter.New(deps.Client, deps.Tenants, cfg, deps.Logger)
	repo := repository.New(a, repository.Hooks[Account]{
		BeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
			data = formatAccount(data)
			if err := validateAccount(data); err != nil {
				return nil, err
			}
			return data, nil
		},
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			return formatAccount(data), nil
		},
	})

	return &AccountService{
		Service: service.New[Account](repo, deps.Cache, deps.Notifier, deps.Logger),
		repo:    repo,
	}
}

func formatAccount(data entity.Partial) entity.Partial {
	out := entity.Strip(data)
	if name, ok := out["name"].(string); ok {
		out["name"] = strings.TrimSpace(name)
	}
	if email, ok := out["email"].(string); ok {
		out["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	return out
}

func validateAccount(data entity.Partial) error {
	var messages []string

	name, _ := data["name"].(string)
	if err := validation.Validate(name, validation.Required.Error("Account name is required")); err != nil {
		messages = append(messages, err.Error())
	}

	number, _ := data["account_number"].(string)
	if err := validation.Validate(number, validation.Required.Error("Account number is required")); err != nil {
		messages = append(messages, err.Error())
	}

	if email, ok := data["email"].(string); ok && email != "" {
		if err := validation.Validate(email, is.Email.Error("Account email is invalid")); err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) > 0 {
		return apperr.Validation(messages...)
	}
	return nil
}
