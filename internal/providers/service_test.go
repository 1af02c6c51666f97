package providers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	providers []Provider
	nextID    int64
}

func (r *memoryRepo) InsertProvider(ctx context.Context, p Provider) (Provider, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.providers = append(r.providers, p)
	return p, nil
}

func (r *memoryRepo) GetProvider(ctx context.Context, id int64) (Provider, error) {
	for _, p := range r.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return Provider{}, ErrProviderNotFound
}

func (r *memoryRepo) ListProviders(ctx context.Context) ([]Provider, error) {
	return append([]Provider(nil), r.providers...), nil
}

func (r *memoryRepo) UpdateProvider(ctx context.Context, p Provider) (Provider, error) {
	for i, existing := range r.providers {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			r.providers[i] = p
			return p, nil
		}
	}
	return Provider{}, ErrProviderNotFound
}

func (r *memoryRepo) DeleteProvider(ctx context.Context, id int64) error {
	for i, p := range r.providers {
		if p.ID == id {
			r.providers = append(r.providers[:i], r.providers[i+1:]...)
			return nil
		}
	}
	return ErrProviderNotFound
}

func TestCreateProviderRequiresFields(t *testing.T) {
	cases := map[string]struct {
		input ProviderInput
		err   error
	}{
		"name":    {ProviderInput{Phone: "555", Address: "Dock 4"}, ErrNameRequired},
		"phone":   {ProviderInput{Name: "Textiles", Address: "Dock 4"}, ErrPhoneRequired},
		"address": {ProviderInput{Name: "Textiles", Phone: "555", Address: " "}, ErrAddressRequired},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &memoryRepo{}
			_, err := NewService(repo).CreateProvider(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.err)
			require.Empty(t, repo.providers)
		})
	}
}

func TestProviderLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memoryRepo{})

	created, err := svc.CreateProvider(ctx, ProviderInput{Name: " Textiles ", Phone: "555", Address: "Dock 4"})
	require.NoError(t, err)
	require.Equal(t, "Textiles", created.Name)
	require.Empty(t, created.CompanyName)

	updated, err := svc.UpdateProvider(ctx, created.ID, ProviderInput{Name: "Textiles", CompanyName: "Textiles Ltd", Phone: "556", Address: "Dock 5"})
	require.NoError(t, err)
	require.Equal(t, "Textiles Ltd", updated.CompanyName)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := svc.GetProvider(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "556", got.Phone)

	require.NoError(t, svc.DeleteProvider(ctx, created.ID))
	_, err = svc.GetProvider(ctx, created.ID)
	require.ErrorIs(t, err, ErrProviderNotFound)

	_, err = svc.UpdateProvider(ctx, 0, ProviderInput{Name: "x", Phone: "1", Address: "y"})
	require.ErrorIs(t, err, ErrProviderNotFound)
	require.ErrorIs(t, svc.DeleteProvider(ctx, 99), ErrProviderNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(&memoryRepo{}))
	r := chi.NewRouter()
	r.Route("/providers", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/providers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/providers", strings.NewReader(`{"name":"Textiles","company_name":"Textiles Ltd","phone":"555","address":"Dock 4"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Provider
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.Equal(t, "Textiles Ltd", created.CompanyName)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/providers/1", strings.NewReader(`{"name":"Textiles","phone":"555","address":"Dock 9"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/providers", strings.NewReader(`{"name":"Textiles"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/providers/1", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/providers/1", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
