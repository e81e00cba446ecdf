package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/golang-jwt/jwt/v5"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, session *auth.Session) (*MarketplaceClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewMarketplaceClient(config.MarketplaceConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, session, nil)
	return client, server
}

func testToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestCatalogProvider_Brands_FlatArray(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/catalog/brands" {
			t.Errorf("Expected path /catalog/brands, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("Expected no Authorization header without a session")
		}
		w.Write([]byte(`[{"id":7,"name":"Toyota"},{"id":8,"name":"Lexus"}]`))
	}, nil)

	brands, err := NewCatalogProvider(client).Brands(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(brands) != 2 || brands[0].Name != "Toyota" {
		t.Errorf("Unexpected brands: %+v", brands)
	}
}

func TestCatalogProvider_Models_WalksPages(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/catalog/brands/7/models" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("page") {
		case "":
			w.Write([]byte(`{"items":[{"id":42,"name":"Camry"}],"page":1,"totalPages":2}`))
		case "2":
			w.Write([]byte(`{"results":[{"id":43,"name":"Corolla"}],"page":2,"totalPages":2}`))
		default:
			t.Errorf("Unexpected page %s", r.URL.Query().Get("page"))
		}
	}, nil)

	models, err := NewCatalogProvider(client).Models(context.Background(), 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(models) != 2 || models[1].ID != 43 {
		t.Errorf("Unexpected models: %+v", models)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestCatalogProvider_Years_MixedShapes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("brandId") != "7" || q.Get("modelId") != "42" || q.Get("steeringSide") != "true" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[2019, {"year": 2020}, {"id": 2021, "name": "2021"}, "junk"]`))
	}, nil)

	right := true
	years, err := NewCatalogProvider(client).Years(context.Background(), dtos.YearsQuery{BrandID: 7, ModelID: 42, SteeringSide: &right})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(years) != 3 {
		t.Fatalf("Expected 3 years, got %+v", years)
	}
	if years[1].ID != 2020 || years[1].Name != "2020" {
		t.Errorf("Unexpected year entity %+v", years[1])
	}
}

func TestCatalogProvider_Generations_RequiresScope(t *testing.T) {
	provider := NewCatalogProvider(NewMarketplaceClient(config.MarketplaceConfig{BaseURL: "http://127.0.0.1:0"}, nil, nil))

	_, err := provider.Generations(context.Background(), dtos.GenerationsQuery{BrandID: 7, ModelID: 42})
	if !IsCode(err, constants.ErrCodeInvalidDataFormat) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestMarketplaceClient_AttachesAndRefreshesToken(t *testing.T) {
	stale := testToken(t, "user-1")
	fresh := testToken(t, "user-1-fresh")

	var listingCalls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			var req refreshRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.RefreshToken != "refresh-1" {
				t.Errorf("Expected refresh-1, got %s", req.RefreshToken)
			}
			json.NewEncoder(w).Encode(refreshResponse{AccessToken: fresh, RefreshToken: "refresh-2"})
		case "/me/listings":
			atomic.AddInt32(&listingCalls, 1)
			if r.Header.Get("Authorization") != "Bearer "+fresh {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`[{"id":1,"title":"Camry"}]`))
		}
	}, nil)

	session := auth.NewSession(nil)
	client.session = session
	session.SetRefresher(client.refreshTokens)
	if err := session.Begin(auth.Tokens{AccessToken: stale, RefreshToken: "refresh-1"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	got, err := NewListingProvider(client).MyListings(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 listing, got %d", len(got))
	}
	if listingCalls != 2 {
		t.Errorf("Expected the request to be retried once, got %d calls", listingCalls)
	}
	if session.UserID() != "user-1-fresh" {
		t.Errorf("Expected refreshed session, got subject %q", session.UserID())
	}
}

func TestMarketplaceClient_RefreshIgnoresContentType(t *testing.T) {
	fresh := testToken(t, "user-2-fresh")
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(`{"accessToken":"` + fresh + `","refreshToken":"refresh-3"}`))
	}, nil)

	tokens, err := client.refreshTokens(context.Background(), "refresh-2")
	if err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if tokens.AccessToken != fresh || tokens.RefreshToken != "refresh-3" {
		t.Errorf("Unexpected tokens %+v", tokens)
	}
}

func TestMarketplaceClient_RefreshWithoutAccessTokenFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"refreshToken":"refresh-3"}`))
	}, nil)

	_, err := client.refreshTokens(context.Background(), "refresh-2")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Code != constants.ErrCodeTokenRefreshFailed {
		t.Fatalf("Expected a token refresh failure, got %v", err)
	}
}

func TestListingProvider_Create_ServerMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"VIN already registered"}`))
	}, nil)

	_, err := NewListingProvider(client).Create(context.Background(), dtos.ListingPayload{BrandID: 7})

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Code != constants.ErrCodeRejected {
		t.Errorf("Expected REJECTED, got %s", pe.Code)
	}
	if pe.UserMessage() != "VIN already registered" {
		t.Errorf("Expected server message, got %q", pe.UserMessage())
	}
}

func TestListingProvider_Create_PayloadKeys(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, key := range []string{"brandId", "modelId", "bodyTypeId", "generationId", "modificationId", "cityId",
			"colorId", "year", "price", "odometer", "phoneNumbers", "tradeIn", "vinCode", "steeringSide",
			"accidentFlag", "isNew", "owners", "description"} {
			if _, ok := body[key]; !ok {
				t.Errorf("Payload is missing %s", key)
			}
		}
		if _, ok := body["steeringSide"].(bool); !ok {
			t.Errorf("steeringSide must be a boolean")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":555}`))
	}, nil)

	resp, err := NewListingProvider(client).Create(context.Background(), dtos.ListingPayload{BrandID: 7, PhoneNumbers: []string{}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.ID != 555 {
		t.Errorf("Expected id 555, got %d", resp.ID)
	}
}

func TestListingProvider_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	_, err := NewListingProvider(client).Get(context.Background(), 9)
	if !IsCode(err, constants.ErrCodeResourceNotFound) {
		t.Errorf("Expected RESOURCE_NOT_FOUND, got %v", err)
	}
	if UserMessage(err, "fallback") != constants.GetErrorMessage(constants.ErrCodeResourceNotFound) {
		t.Errorf("Expected generic message for code")
	}
}

func TestMediaProvider_UploadMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listings/555/media" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["images"]
		if len(files) != 2 {
			t.Fatalf("Expected 2 images, got %d", len(files))
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "jpeg-1" {
			t.Errorf("Unexpected content %q", data)
		}
		w.Write([]byte(`{"paths":["media/555/a.jpg","media/555/b.jpg"]}`))
	}, nil)

	resp, err := NewMediaProvider(client).Upload(context.Background(), 555, []dtos.MediaFile{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-1")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-2")},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.Paths) != 2 {
		t.Errorf("Expected 2 paths, got %v", resp.Paths)
	}
}

func TestMediaProvider_VideoMustBeAlone(t *testing.T) {
	provider := NewMediaProvider(NewMarketplaceClient(config.MarketplaceConfig{BaseURL: "http://127.0.0.1:0"}, nil, nil))

	_, err := provider.Upload(context.Background(), 1, []dtos.MediaFile{
		{Name: "a.mp4", ContentType: "video/mp4", Data: []byte("v")},
		{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte("i")},
	})
	if !IsCode(err, constants.ErrCodeMediaInvalid) {
		t.Errorf("Expected MEDIA_INVALID, got %v", err)
	}
}

func TestMediaProvider_DeleteNormalizesPath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		if got := r.URL.Query().Get("path"); got != "media/555/a.jpg" {
			t.Errorf("Expected normalized path, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	err := NewMediaProvider(client).Delete(context.Background(), 555, "https://cdn.autobazar.example/media/555/a.jpg?v=3")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestNormalizeMediaPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://cdn.example.com/media/1/a.jpg", "media/1/a.jpg"},
		{"http://cdn.example.com/media/1/a.jpg?w=300#x", "media/1/a.jpg"},
		{"//cdn.example.com/media/1/a.jpg", "media/1/a.jpg"},
		{"/media/1/a.jpg", "media/1/a.jpg"},
		{"media/1/a.jpg?v=2", "media/1/a.jpg"},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMediaPath(tt.in); got != tt.want {
			t.Errorf("NormalizeMediaPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildHTTPError_Codes(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, constants.ErrCodeAuthenticationFailed},
		{http.StatusForbidden, constants.ErrCodeAccessDenied},
		{http.StatusTooManyRequests, constants.ErrCodeRateLimited},
		{http.StatusBadGateway, constants.ErrCodeServerError},
		{http.StatusBadRequest, constants.ErrCodeRejected},
	}

	for _, tt := range tests {
		err := buildHTTPError(tt.status, "/x", []byte(`{"errors":{"vinCode":["invalid"]}}`))
		var pe *ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("Expected ProviderError")
		}
		if pe.Code != tt.code {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.code, pe.Code)
		}
		if !strings.Contains(pe.ServerMessage, "vinCode") {
			t.Errorf("Expected field error in server message, got %q", pe.ServerMessage)
		}
	}
}
