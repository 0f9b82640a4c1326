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

// FundService manages designated funds.
type FundService struct {
	*service.Service[Fund]
}

func newFundService(deps Deps) *FundService {
	cfg := adapter.Config[Fund]{
		Table:        "funds",
		DefaultOrder: &query.Order{Column: "name"},
		Hooks: adapter.Hooks[Fund]{
			OnBeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
				if _, ok := data["is_active"]; !ok {
					data = entity.Strip(data)
					data["is_active"] = true
				}
				return data, nil
			},
			OnBeforeDelete: func(ctx context.Context, id string) error {
				inUse, err := hasDependentRows(ctx, deps, "transactions", "fund_id", id)
				if err != nil {
					return err
				}
				if inUse {
					return apperr.Guard("funds", "Cannot delete fund with existing financial transactions")
				}
				return nil
			},
		},
	}

	a := adapter.New(deps.Client, deps.Tenants, cfg, deps.Logger)
	repo := repository.New(a, repository.Hooks[Fund]{
		BeforeCreate: func(_ context.Context, data entity.Partial) (entity.Partial, error) {
			data = formatFund(data)
			if err := validateFund(data); err != nil {
				return nil, err
			}
			return data, nil
		},
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			return formatFund(data), nil
		},
	})

	return &FundService{Service: service.New[Fund](repo, deps.Cache, deps.Notifier, deps.Logger)}
}

func formatFund(data entity.Partial) entity.Partial {
	out := entity.Strip(data)
	if name, ok := out["name"].(string); ok {
		out["name"] = strings.TrimSpace(name)
	}
	return out
}

func validateFund(data entity.Partial) error {
	name, _ := data["name"].(string)
	if err := validation.Validate(name, validation.Required.Error("Fund name is required")); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}
