package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
)

type stubService struct {
	sdav1.UnimplementedApprovalEngineServer
	routingErr error
	lastRoute  *sdav1.RoutingRequest
}

func (s *stubService) ComputeRouting(_ context.Context, req *sdav1.RoutingRequest) (*sdav1.RoutingResponse, error) {
	s.lastRoute = req
	if s.routingErr != nil {
		return nil, s.routingErr
	}
	return &sdav1.RoutingResponse{Steps: []*sdav1.ApprovalStep{{ID: "1", Role: "Requestor", Required: true, Status: "pending"}}}, nil
}

func (s *stubService) HealthCheck(context.Context, *sdav1.HealthRequest) (*sdav1.HealthResponse, error) {
	return &sdav1.HealthResponse{Status: "ok"}, nil
}

func TestGatewayRouting(t *testing.T) {
	svc := &stubService{}
	srv := httptest.NewServer(NewGateway(svc, 0, nil).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/routing", "application/json",
		strings.NewReader(`{"classification":{"business_unit":"RB","duration_category":"short_prior"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotNil(t, svc.lastRoute)
	assert.Equal(t, "short_prior", svc.lastRoute.Classification.DurationCategory)
}

func TestGatewayMapsStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{status.Error(codes.InvalidArgument, "bad duration"), http.StatusBadRequest},
		{status.Error(codes.FailedPrecondition, "not configured"), http.StatusUnprocessableEntity},
		{status.Error(codes.Internal, "boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &stubService{routingErr: tc.err}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/routing", strings.NewReader(`{"classification":{}}`))
		NewGateway(svc, 0, nil).Router().ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), status.Convert(tc.err).Message())
	}
}

func TestGatewayRejectsMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/routing", strings.NewReader(`{"classification":`))
	NewGateway(&stubService{}, 0, nil).Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/routing", strings.NewReader(`{"unexpected":true}`))
	NewGateway(&stubService{}, 0, nil).Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayUnimplementedAndHealth(t *testing.T) {
	router := NewGateway(&stubService{}, 0, nil).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
