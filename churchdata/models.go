// Package churchdata wires the concrete church management entities onto the
// generic data layer: per-entity adapters with their relationship trees,
// repositories with domain validation, and cached services.
package churchdata

import (
	"github.com/parishdesk/parishdesk/entity"
)

// Account is a ledger account in the chart of accounts.
type Account struct {
	entity.Entity
	Name          string  `json:"name,omitempty"`
	AccountNumber string  `json:"account_number,omitempty"`
	AccountType   string  `json:"account_type,omitempty"`
	Email         *string `json:"email,omitempty"`
	Description   *string `json:"description,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	MemberID      *string `json:"member_id,omitempty"`
}

// Fund is a designated pool of money contributions are recorded against.
type Fund struct {
	entity.Entity
	Name        string  `json:"name,omitempty"`
	FundType    string  `json:"fund_type,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Member is a registered congregation member.
type Member struct {
	entity.Entity
	FirstName     string  `json:"first_name,omitempty"`
	LastName      string  `json:"last_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Address       *string `json:"address,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	BirthDate     *string `json:"birth_date,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// MenuItem is one navigable feature a role can grant access to.
type MenuItem struct {
	entity.Entity
	Name  string `json:"name,omitempty"`
	Path  string `json:"path,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Order int    `json:"order,omitempty"`
}

// RoleMenuItem links a role to a menu item it can access.
type RoleMenuItem struct {
	entity.Entity
	RoleID     string    `json:"role_id,omitempty"`
	MenuItemID string    `json:"menu_item_id,omitempty"`
	MenuItem   *MenuItem `json:"menu_items,omitempty"`
}

// Role is a named permission set assignable to users.
type Role struct {
	entity.Entity
	Name        string         `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	MenuItems   []RoleMenuItem `json:"role_menu_items,omitempty"`
}

// Category is a tenant-configurable lookup value (income types, expense
// types, membership categories and the like), distinguished by Type.
type Category struct {
	entity.Entity
	Type        string  `json:"type,omitempty"`
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
