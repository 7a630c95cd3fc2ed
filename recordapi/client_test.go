package recordapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/paginated-query-cache"
	"github.com/krisalay/paginated-query-cache/engine"
	"github.com/krisalay/paginated-query-cache/expiration"
	"github.com/krisalay/paginated-query-cache/types"
	"github.com/krisalay/paginated-query-cache/writepolicy"
)

// fakeAPI is a tiny in-memory patients endpoint.
type fakeAPI struct {
	mu       sync.Mutex
	patients []Patient
	nextID   int
	lists    atomic.Int64
	lastQ    map[string]string
	failNext int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{nextID: 1}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /pacientes", func(w http.ResponseWriter, r *http.Request) {
		api.lists.Add(1)
		api.mu.Lock()
		defer api.mu.Unlock()

		if api.failNext != 0 {
			http.Error(w, "upstream down", api.failNext)
			api.failNext = 0
			return
		}

		api.lastQ = map[string]string{}
		for k := range r.URL.Query() {
			api.lastQ[k] = r.URL.Query().Get(k)
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		from := (page - 1) * size
		to := min(from+size, len(api.patients))
		if from > to {
			from = to
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": api.patients[from:to],
			"meta": types.Meta{Total: len(api.patients), TotalPages: (len(api.patients) + size - 1) / size},
		})
	})

	mux.HandleFunc("POST /pacientes", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		if api.failNext != 0 {
			http.Error(w, "rejected", api.failNext)
			api.failNext = 0
			return
		}

		var p Patient
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.ID = api.nextID
		api.nextID++
		api.patients = append(api.patients, p)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	})

	mux.HandleFunc("PUT /pacientes/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		id, _ := strconv.Atoi(r.PathValue("id"))
		for i := range api.patients {
			if api.patients[i].ID == id {
				var p Patient
				_ = json.NewDecoder(r.Body).Decode(&p)
				p.ID = id
				api.patients[i] = p
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		http.NotFound(w, r)
	})

	mux.HandleFunc("DELETE /pacientes/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		id, _ := strconv.Atoi(r.PathValue("id"))
		for i := range api.patients {
			if api.patients[i].ID == id {
				api.patients = append(api.patients[:i], api.patients[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) seed(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		a.patients = append(a.patients, Patient{ID: a.nextID, Nombre: "Paciente " + strconv.Itoa(a.nextID), Sexo: "F"})
		a.nextID++
	}
}

func (a *fakeAPI) fail(code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = code
}

type countingPolicy struct{ ops []writepolicy.Op }

func (p *countingPolicy) OnWrite(_ context.Context, op writepolicy.Op, _ int) {
	p.ops = append(p.ops, op)
}

func TestListPatients(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.seed(25)

	c := NewClient(srv.URL, time.Second)
	res, err := c.ListPatients(context.Background(), types.Query{
		Page: 3, PageSize: 10, SortBy: "dni", SortOrder: types.Desc, Search: "ana",
	})
	require.NoError(t, err)

	assert.Len(t, res.Data, 5)
	assert.Equal(t, types.Meta{Total: 25, TotalPages: 3}, res.Meta)
	assert.IsType(t, Patient{}, res.Data[0])
	assert.Equal(t, map[string]string{
		"page": "3", "pageSize": "10", "sortBy": "dni", "sortOrder": "desc", "search": "ana",
	}, api.lastQ)
}

func TestListPatientsStatusError(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.fail(http.StatusBadGateway)

	_, err := NewClient(srv.URL, time.Second).ListPatients(context.Background(), types.Query{Page: 1, PageSize: 10})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func rawServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListPatientsDecodesWithoutContentType(t *testing.T) {
	body := `{"data":[{"id":1,"nombre":"Ana","dni":"1","fecha_nac":"1990-01-02","sexo":"F"}],"meta":{"total":1,"totalPages":1}}`

	for name, ct := range map[string]string{
		"missing":    "",
		"text/plain": "text/plain; charset=utf-8",
		"json":       "application/json",
	} {
		t.Run(name, func(t *testing.T) {
			srv := rawServer(t, ct, body)

			res, err := NewClient(srv.URL, time.Second).ListPatients(context.Background(), types.Query{Page: 1, PageSize: 10})
			require.NoError(t, err)
			require.Len(t, res.Data, 1)
			assert.Equal(t, "Ana", res.Data[0].(Patient).Nombre)
			assert.Equal(t, types.Meta{Total: 1, TotalPages: 1}, res.Meta)
		})
	}
}

func TestListPatientsNonJSONBodyIsAnError(t *testing.T) {
	srv := rawServer(t, "text/html; charset=utf-8", "<html><body>Please sign in</body></html>")

	_, err := NewClient(srv.URL, time.Second).ListPatients(context.Background(), types.Query{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list patients")
}

func TestNonJSONPageIsNotCached(t *testing.T) {
	srv := rawServer(t, "text/html", "<html>maintenance</html>")

	client := NewClient(srv.URL, time.Second)
	eng := engine.NewCacheEngine(&expiration.ExpireAfterWrite{TTL: 5 * time.Minute}, client, nil, nil)
	pc := cache.NewPageCache(1000, eng)
	t.Cleanup(pc.Close)

	_, err := pc.FetchWithCache(context.Background(), types.Query{Page: 1, PageSize: 10, SortBy: "nombre", SortOrder: types.Asc})
	require.Error(t, err)
	assert.Equal(t, int64(0), pc.CurrentSize())
}

func TestListPatientsTransportError(t *testing.T) {
	_, srv := newFakeAPI(t)
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListPatients(context.Background(), types.Query{Page: 1, PageSize: 10})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list patients")
}

func TestWritesFirePolicyOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)

	policy := &countingPolicy{}
	c := NewClient(srv.URL, time.Second)
	c.SetWritePolicy(policy)

	created, err := c.CreatePatient(ctx, Patient{Nombre: "Ana", DNI: "123", FechaNac: "1990-01-02", Sexo: "F"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	_, err = c.UpdatePatient(ctx, created.ID, Patient{Nombre: "Ana María", Sexo: "F"})
	require.NoError(t, err)

	require.NoError(t, c.DeletePatient(ctx, created.ID))

	api.fail(http.StatusUnprocessableEntity)
	_, err = c.CreatePatient(ctx, Patient{Nombre: "Bad"})
	require.Error(t, err)

	err = c.DeletePatient(ctx, 999)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)

	assert.Equal(t, []writepolicy.Op{writepolicy.Create, writepolicy.Update, writepolicy.Delete}, policy.ops)
}

func TestCacheInvalidatedAfterCreate(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.seed(3)

	client := NewClient(srv.URL, time.Second)

	eng := engine.NewCacheEngine(&expiration.ExpireAfterWrite{TTL: 5 * time.Minute}, client, nil, nil)
	pc := cache.NewPageCache(1000, eng)
	t.Cleanup(pc.Close)

	client.SetWritePolicy(writepolicy.NewInvalidateThrough(pc))

	q := types.Query{Page: 1, PageSize: 10, SortBy: "nombre", SortOrder: types.Asc}

	first, err := pc.FetchWithCache(ctx, q)
	require.NoError(t, err)
	assert.Len(t, first.Data, 3)

	_, _ = pc.FetchWithCache(ctx, q)
	assert.Equal(t, int64(1), api.lists.Load())

	_, err = client.CreatePatient(ctx, Patient{Nombre: "Nuevo"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), pc.CurrentSize())

	after, err := pc.FetchWithCache(ctx, q)
	require.NoError(t, err)
	assert.Len(t, after.Data, 4)
	assert.Equal(t, int64(2), api.lists.Load())
}
