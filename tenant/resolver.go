package tenant

import (
	"context"

	"github.com/parishdesk/parishdesk/postgrest"
)

// RPCResolver resolves the acting tenant through the backend's
// get_current_tenant procedure, which applies the session's row-level
// security context server side.
type RPCResolver struct {
	client *postgrest.Client
}

// NewRPCResolver builds a resolver over the given backend client.
func NewRPCResolver(client *postgrest.Client) *RPCResolver {
	return &RPCResolver{client: client}
}

// ResolveTenant implements Resolver. No row means no tenant, not an error.
func (r *RPCResolver) ResolveTenant(ctx context.Context) (*Tenant, error) {
	var rows []Tenant
	if err := r.client.Rpc(ctx, "get_current_tenant", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
