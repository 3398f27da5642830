package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

func (s *Session) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*PolicyResponse, error) {
	return callJSON[PolicyResponse](ctx, s, http.MethodPost, "/v1/policies", req, http.StatusCreated)
}

// ListPolicies returns policies in the order they are evaluated.
func (s *Session) ListPolicies(ctx context.Context) (*PolicyListResponse, error) {
	return callJSON[PolicyListResponse](ctx, s, http.MethodGet, "/v1/policies", nil, http.StatusOK)
}

func (s *Session) GetPolicy(ctx context.Context, policyID string) (*PolicyResponse, error) {
	return callJSON[PolicyResponse](ctx, s, http.MethodGet, "/v1/policies/"+url.PathEscape(policyID), nil, http.StatusOK)
}

// UpdatePolicy applies a merge patch. Use a nil value to clear a filter:
//
//	s.UpdatePolicy(ctx, id, authsdk.PolicyPatch{"agentId": nil, "priority": 10})
func (s *Session) UpdatePolicy(ctx context.Context, policyID string, patch PolicyPatch) (*PolicyResponse, error) {
	return callJSON[PolicyResponse](ctx, s, http.MethodPatch, "/v1/policies/"+url.PathEscape(policyID), patch, http.StatusOK)
}

func (s *Session) DeletePolicy(ctx context.Context, policyID string) error {
	return s.del(ctx, "/v1/policies/"+url.PathEscape(policyID))
}
