package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
)

// HTTPClient talks JSON over HTTP to the fitness backend, authenticating
// every request with the session's bearer token.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPClient constructs a token-scoped HTTPClient.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// RemoteError is a non-2xx backend response.
type RemoteError struct {
	Status int
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Type, e.Detail)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, http.StatusText(e.Status))
}

func (c *HTTPClient) do(ctx context.Context, method, path, idempotencyKey string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		remoteErr := &RemoteError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(remoteErr)
		return remoteErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// AddActivity implements Client.
func (c *HTTPClient) AddActivity(ctx context.Context, idempotencyKey string, req AddActivityRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/activities", idempotencyKey, req, nil)
}

// GetAllActivities implements Client.
func (c *HTTPClient) GetAllActivities(ctx context.Context) ([]domain.Activity, error) {
	var out struct {
		Items []domain.Activity `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/activities", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetDailyCalorieGoal implements Client. A 404 means no goal has been set.
func (c *HTTPClient) GetDailyCalorieGoal(ctx context.Context) (int64, error) {
	var out struct {
		Value int64 `json:"value"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/goal", "", nil, &out)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			return 0, ErrNoGoalSet
		}
		return 0, err
	}
	return out.Value, nil
}

// SetDailyCalorieGoal implements Client.
func (c *HTTPClient) SetDailyCalorieGoal(ctx context.Context, idempotencyKey string, goal int64) error {
	body := struct {
		Value int64 `json:"value"`
	}{Value: goal}
	return c.do(ctx, http.MethodPut, "/v1/goal", idempotencyKey, body, nil)
}

// GeneratePersonalizedDietPlan implements Client.
func (c *HTTPClient) GeneratePersonalizedDietPlan(ctx context.Context, goal domain.FitnessGoal, stats *domain.UserStats) (domain.DietPlan, error) {
	body := struct {
		Goal  domain.FitnessGoal `json:"goal"`
		Stats *domain.UserStats  `json:"stats,omitempty"`
	}{Goal: goal, Stats: stats}

	var plan domain.DietPlan
	if err := c.do(ctx, http.MethodPost, "/v1/plans/diet", "", body, &plan); err != nil {
		return domain.DietPlan{}, err
	}
	return plan, nil
}

// GenerateWorkoutPlan implements Client.
func (c *HTTPClient) GenerateWorkoutPlan(ctx context.Context, goal domain.FitnessGoal) (domain.WorkoutPlan, error) {
	body := struct {
		Goal domain.FitnessGoal `json:"goal"`
	}{Goal: goal}

	var plan domain.WorkoutPlan
	if err := c.do(ctx, http.MethodPost, "/v1/plans/workout", "", body, &plan); err != nil {
		return domain.WorkoutPlan{}, err
	}
	return plan, nil
}

// GetCallerUserProfile implements Client. A 404 maps to a nil profile.
func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := c.do(ctx, http.MethodGet, "/v1/profile", "", nil, &profile)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// SaveCallerUserProfile implements Client.
func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error {
	return c.do(ctx, http.MethodPut, "/v1/profile", "", profile, nil)
}

// GetCallerUserRole implements Client.
func (c *HTTPClient) GetCallerUserRole(ctx context.Context) (domain.UserRole, error) {
	var out struct {
		Role domain.UserRole `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/role", "", nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

// IsCallerAdmin implements Client.
func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := c.GetCallerUserRole(ctx)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}
