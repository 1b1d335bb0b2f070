package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/catalogportal/backend/internal/application/catalog"
	catalogdomain "github.com/catalogportal/backend/internal/domain/catalog"
	"github.com/catalogportal/backend/internal/domain/shared"
	"github.com/catalogportal/backend/internal/interfaces/http/middleware"
)

type stubOfferRepo struct {
	offers map[uuid.UUID]*catalogdomain.Offer
}

func newStubOfferRepo() *stubOfferRepo {
	return &stubOfferRepo{offers: make(map[uuid.UUID]*catalogdomain.Offer)}
}

func (r *stubOfferRepo) Save(_ context.Context, offer *catalogdomain.Offer) error {
	r.offers[offer.ID] = offer
	return nil
}

func (r *stubOfferRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalogdomain.Offer, error) {
	offer, ok := r.offers[id]
	if !ok || offer.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return offer, nil
}

func (r *stubOfferRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]catalogdomain.Offer, error) {
	offers := make([]catalogdomain.Offer, 0)
	for _, offer := range r.offers {
		if offer.TenantID == tenantID {
			offers = append(offers, *offer)
		}
	}
	return offers, nil
}

func (r *stubOfferRepo) FindActiveForTenant(_ context.Context, tenantID uuid.UUID, now time.Time) ([]catalogdomain.Offer, error) {
	offers := make([]catalogdomain.Offer, 0)
	for _, offer := range r.offers {
		if offer.TenantID == tenantID && offer.ActiveAt(now) {
			offers = append(offers, *offer)
		}
	}
	return offers, nil
}

func (r *stubOfferRepo) DeleteForTenant(_ context.Context, tenantID, id uuid.UUID) error {
	offer, ok := r.offers[id]
	if !ok || offer.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.offers, id)
	return nil
}

func newOfferRouter(t *testing.T) (*gin.Engine, *stubOfferRepo) {
	t.Helper()

	repo := newStubOfferRepo()
	tenantID := uuid.New()
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.JWTTenantIDKey, tenantID.String())
	})

	handler := NewOfferHandler(catalogapp.NewOfferService(repo))
	handler.RegisterRoutes(engine.Group("/api/v1"))
	return engine, repo
}

func offerBody() gin.H {
	return gin.H{
		"productId":  uuid.NewString(),
		"title":      "Festive Discount",
		"offerType":  "percentage",
		"offerValue": "15",
		"applyTo":    "all",
		"validFrom":  time.Now().Add(-time.Hour).Format(time.RFC3339),
		"validTo":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func TestOfferHandler_CreateAndList(t *testing.T) {
	engine, _ := newOfferRouter(t)

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/offers", offerBody())
	assert.Equal(t, http.StatusCreated, w.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Festive Discount", data["title"])

	w, resp = doJSON(t, engine, http.MethodGet, "/api/v1/offers", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	offers, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, offers, 1)
}

func TestOfferHandler_Create_InvalidType(t *testing.T) {
	engine, _ := newOfferRouter(t)
	body := offerBody()
	body["offerType"] = "bogo"

	w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/offers", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferHandler_Delete(t *testing.T) {
	engine, repo := newOfferRouter(t)

	_, resp := doJSON(t, engine, http.MethodPost, "/api/v1/offers", offerBody())
	data := resp.Data.(map[string]any)
	offerID := data["id"].(string)

	w, _ := doJSON(t, engine, http.MethodDelete, "/api/v1/offers/"+offerID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.offers)

	w, errResp := doJSON(t, engine, http.MethodDelete, "/api/v1/offers/"+offerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, "NOT_FOUND", errResp.Error.Code)
}

func TestOfferHandler_VisibleForRetailer_WithSalePrice(t *testing.T) {
	engine, _ := newOfferRouter(t)
	retailerID := uuid.New()

	_, _ = doJSON(t, engine, http.MethodPost, "/api/v1/offers", offerBody())

	w, resp := doJSON(t, engine, http.MethodGet,
		"/api/v1/offers/retailer/"+retailerID.String()+"?base_price=200", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	offers, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, offers, 1)
	offer := offers[0].(map[string]any)
	assert.Equal(t, "170", offer["salePrice"])
}

func TestOfferHandler_VisibleForRetailer_InvalidBasePrice(t *testing.T) {
	engine, _ := newOfferRouter(t)

	w, _ := doJSON(t, engine, http.MethodGet,
		"/api/v1/offers/retailer/"+uuid.NewString()+"?base_price=abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
