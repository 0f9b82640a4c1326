package churchdata

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/service"
)

// MemberService manages congregation members. Creating a member also
// provisions the member's receivable ledger account.
type MemberService struct {
	*service.Service[Member]
	repo *repository.Base[Member]
}

func newMemberService(deps Deps, accounts *AccountService) *MemberService {
	cfg := adapter.Config[Member]{
		Table:        "members",
		DefaultOrder: &query.Order{Column: "last_name"},
	}

	a := adapter.New(deps.Client, deps.Tenants, cfg, deps.Logger)
	repo := repository.New(a, repository.Hooks[Member]{
		BeforeCreate: func(ctx context.Context, data entity.Partial) (entity.Partial, error) {
			data = formatMember(data)
			if err := validateMember(data); err != nil {
				return nil, err
			}
			if err := rejectDuplicateEmail(ctx, repoExists(a), data); err != nil {
				return nil, err
			}
			return data, nil
		},
		BeforeUpdate: func(_ context.Context, _ string, data entity.Partial) (entity.Partial, error) {
			return formatMember(data), nil
		},
		AfterCreate: func(ctx context.Context, member Member) error {
			// Provisioning failure must not fail the member creation;
			// the account can be created by hand afterwards.
			if err := provisionMemberAccount(ctx, accounts, member); err != nil {
				deps.Logger.Error("member account provisioning failed",
					zap.String("member_id", member.ID), zap.Error(err))
			}
			return nil
		},
	})

	return &MemberService{
		Service: service.New[Member](repo, deps.Cache, deps.Notifier, deps.Logger),
		repo:    repo,
	}
}

// existsFn decouples the duplicate check from the adapter for testing.
type existsFn func(ctx context.Context, filters query.Filters) (bool, error)

func repoExists(a *adapter.Adapter[Member]) existsFn {
	return a.Exists
}

func rejectDuplicateEmail(ctx context.Context, exists existsFn, data entity.Partial) error {
	email, ok := data["email"].(string)
	if !ok || email == "" {
		return nil
	}
	taken, err := exists(ctx, query.Filters{"email": email})
	if err != nil {
		return err
	}
	if taken {
		return apperr.Validation("A member with this email already exists")
	}
	return nil
}

// provisionMemberAccount creates the receivable account that member
// contributions are posted against.
func provisionMemberAccount(ctx context.Context, accounts *AccountService, member Member) error {
	number := "MEM-" + member.ID
	if len(member.ID) >= 8 {
		number = "MEM-" + member.ID[:8]
	}
	_, err := accounts.Create(ctx, entity.Partial{
		"name":           strings.TrimSpace(member.FirstName + " " + member.LastName),
		"account_number": number,
		"account_type":   "receivable",
		"member_id":      member.ID,
	})
	return err
}

func formatMember(data entity.Partial) entity.Partial {
	out := entity.Strip(data)
	for _, field := range []string{"first_name", "last_name"} {
		if v, ok := out[field].(string); ok {
			out[field] = strings.TrimSpace(v)
		}
	}
	if email, ok := out["email"].(string); ok {
		out["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	return out
}

func validateMember(data entity.Partial) error {
	var messages []string

	first, _ := data["first_name"].(string)
	if err := validation.Validate(first, validation.Required.Error("First name is required")); err != nil {
		messages = append(messages, err.Error())
	}

	last, _ := data["last_name"].(string)
	if err := validation.Validate(last, validation.Required.Error("Last name is required")); err != nil {
		messages = append(messages, err.Error())
	}

	if email, ok := data["email"].(string); ok && email != "" {
		if err := validation.Validate(email, is.Email.Error("Member email is invalid")); err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) > 0 {
		return apperr.Validation(messages...)
	}
	return nil
}
