package appraisalsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	return v
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (s *Session) CreateClient(ctx context.Context, orgID string, req ClientRequest) (*ClientResponse, error) {
	var out ClientResponse
	if err := s.do(ctx, http.MethodPost, orgPath(orgID, "clients"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListClients(ctx context.Context, orgID string, opts ListOptions) ([]ClientResponse, error) {
	var out []ClientResponse
	path := withQuery(orgPath(orgID, "clients"), opts.values())
	if err := s.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) GetClient(ctx context.Context, orgID, clientID string) (*ClientResponse, error) {
	var out ClientResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID, "clients", clientID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateClient(
	ctx context.Context,
	orgID, clientID string,
	req UpdateClientRequest,
) (*ClientResponse, error) {
	var out ClientResponse
	if err := s.do(ctx, http.MethodPatch, orgPath(orgID, "clients", clientID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateOrder(ctx context.Context, orgID string, req CreateOrderRequest) (*OrderResponse, error) {
	var out OrderResponse
	if err := s.do(ctx, http.MethodPost, orgPath(orgID, "orders"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListOrders(ctx context.Context, orgID string, opts OrderListOptions) ([]OrderResponse, error) {
	v := opts.values()
	if opts.Status != "" {
		v.Set("status", opts.Status)
	}
	if opts.AssigneeID != "" {
		v.Set("assigneeId", opts.AssigneeID)
	}
	if opts.ClientID != "" {
		v.Set("clientId", opts.ClientID)
	}

	var out []OrderResponse
	if err := s.do(ctx, http.MethodGet, withQuery(orgPath(orgID, "orders"), v), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) GetOrder(ctx context.Context, orgID, orderID string) (*OrderResponse, error) {
	var out OrderResponse
	if err := s.do(ctx, http.MethodGet, orgPath(orgID, "orders", orderID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateOrder(
	ctx context.Context,
	orgID, orderID string,
	req UpdateOrderRequest,
) (*OrderResponse, error) {
	var out OrderResponse
	if err := s.do(ctx, http.MethodPatch, orgPath(orgID, "orders", orderID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
