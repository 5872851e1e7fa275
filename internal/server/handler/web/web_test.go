package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// fakeBookService stubs the catalog service for template rendering.
type fakeBookService struct {
	ListFunc   func(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*models.Book, error)
	CreateFunc func(ctx context.Context, in models.BookInput) (*models.Book, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeBookService) List(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error) {
	return f.ListFunc(ctx, p)
}

func (f *fakeBookService) Homepage(context.Context) (*models.HomepageBooks, error) {
	return &models.HomepageBooks{}, nil
}

func (f *fakeBookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return f.GetFunc(ctx, id)
}

func (f *fakeBookService) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	return f.CreateFunc(ctx, in)
}

func (f *fakeBookService) Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	return f.UpdateFunc(ctx, id, upd)
}

func (f *fakeBookService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.DeleteFunc(ctx, id)
}

func newWebServer(t *testing.T, books *fakeBookService) *httptest.Server {
	t.Helper()
	h, err := New(books, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

// postForm submits a form without following the redirect the handler answers with.
func postForm(t *testing.T, rawURL string, form url.Values) *http.Response {
	t.Helper()
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(rawURL, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWeb_Index(t *testing.T) {
	books := &fakeBookService{
		ListFunc: func(_ context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error) {
			return []models.Book{{ID: uuid.New(), Title: "Dune", Author: "Herbert"}}, models.Pagination{}, nil
		},
	}
	srv := newWebServer(t, books)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "New Arrivals")
}

func TestWeb_Detail(t *testing.T) {
	known := uuid.New()
	books := &fakeBookService{
		GetFunc: func(_ context.Context, id uuid.UUID) (*models.Book, error) {
			if id == known {
				return &models.Book{ID: id, Title: "Dune", Author: "Herbert", ISBN: "x"}, nil
			}
			return nil, errs.ErrNotFound
		},
	}
	srv := newWebServer(t, books)

	t.Run("found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/book/detail/" + known.String())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing gets the envelope", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/book/detail/" + uuid.NewString())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	})
}

func TestWeb_AddForm(t *testing.T) {
	created := uuid.New()
	books := &fakeBookService{
		CreateFunc: func(_ context.Context, in models.BookInput) (*models.Book, error) {
			assert.Equal(t, "Dune", in.Title)
			require.NotNil(t, in.Year)
			assert.Equal(t, 1965, *in.Year)
			assert.True(t, in.IsHighlighted)
			return &models.Book{ID: created, Title: in.Title}, nil
		},
	}
	srv := newWebServer(t, books)

	t.Run("valid submission redirects to the new book", func(t *testing.T) {
		form := url.Values{
			"title":         {"Dune"},
			"author":        {"Herbert"},
			"isbn":          {"9780441172719"},
			"year":          {"1965"},
			"isHighlighted": {"true"},
		}
		resp := postForm(t, srv.URL+"/book/add", form)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/book/detail/"+created.String(), resp.Header.Get("Location"))
	})

	t.Run("missing required fields", func(t *testing.T) {
		resp, err := http.PostForm(srv.URL+"/book/add", url.Values{"title": {"Dune"}})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad year", func(t *testing.T) {
		form := url.Values{
			"title":  {"Dune"},
			"author": {"Herbert"},
			"isbn":   {"9780441172719"},
			"year":   {"year of the worm"},
		}
		resp, err := http.PostForm(srv.URL+"/book/add", form)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestWeb_Delete(t *testing.T) {
	known := uuid.New()
	books := &fakeBookService{
		DeleteFunc: func(_ context.Context, id uuid.UUID) error {
			if id == known {
				return nil
			}
			return errs.ErrNotFound
		},
	}
	srv := newWebServer(t, books)

	resp := postForm(t, srv.URL+"/book/delete/"+known.String(), nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/books", resp.Header.Get("Location"))

	resp2 := postForm(t, srv.URL+"/book/delete/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
