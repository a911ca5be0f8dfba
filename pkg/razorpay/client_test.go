package razorpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/debugly/debugly-backend/pkg/config"
)

func testConfig() config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
	}
}

func TestClientCreateSubscriptionRequest(t *testing.T) {
	const expectedURL = "http://razorpay.test/v1/subscriptions"
	respBody := `{"id":"sub_123","plan_id":"plan_pro","customer_id":"cust_1","status":"created","short_url":"https://rzp.io/i/abc"}`

	var capturedURL string
	var capturedAuthUser string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		user, _, ok := req.BasicAuth()
		if !ok {
			t.Fatal("expected basic auth")
		}
		capturedAuthUser = user

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["plan_id"] != "plan_pro" {
			t.Fatalf("unexpected plan_id %v", payload["plan_id"])
		}
		if payload["total_count"] != float64(12) {
			t.Fatalf("unexpected total_count %v", payload["total_count"])
		}
		if payload["quantity"] != float64(1) {
			t.Fatalf("unexpected quantity %v", payload["quantity"])
		}
		if payload["customer_id"] != "cust_1" {
			t.Fatalf("unexpected customer_id %v", payload["customer_id"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithBaseURL("http://razorpay.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	sub, err := client.CreateSubscription(context.Background(), "plan_pro", "cust_1")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuthUser != "rzp_test_key" {
		t.Fatalf("unexpected auth user %q", capturedAuthUser)
	}
	if sub.ID != "sub_123" || sub.ShortURL != "https://rzp.io/i/abc" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
}

func TestClientGetSubscriptionRequest(t *testing.T) {
	const expectedURL = "http://razorpay.test/v1/subscriptions/sub_123"
	respBody := `{"id":"sub_123","plan_id":"plan_pro","status":"active","paid_count":1,"total_count":12}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", req.Method)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithBaseURL("http://razorpay.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	sub, err := client.GetSubscription(context.Background(), "sub_123")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if !sub.IsSettled() {
		t.Fatalf("expected active subscription to be settled, got status %q", sub.Status)
	}
}

func TestClientCreateCustomerReusesExisting(t *testing.T) {
	respBody := `{"id":"cust_1","name":"Dev","email":"dev@example.com"}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["fail_existing"] != "0" {
			t.Fatalf("expected fail_existing=0, got %v", payload["fail_existing"])
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithBaseURL("http://razorpay.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	customer, err := client.CreateCustomer(context.Background(), "Dev", "dev@example.com")
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if customer.ID != "cust_1" {
		t.Fatalf("unexpected customer %+v", customer)
	}
}

func TestClientSurfacesGatewayErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"error":{"description":"invalid plan"}}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithBaseURL("http://razorpay.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.GetSubscription(context.Background(), "sub_bad"); err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.RazorpayConfig{}); err == nil {
		t.Fatal("expected credentials error")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
