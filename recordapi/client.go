// Package recordapi talks to the remote clinical record API. Its listing call
// is what the page cache loads from on a miss; its write calls fire the
// configured write policy once the API has accepted them.
package recordapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/krisalay/paginated-query-cache/types"
	"github.com/krisalay/paginated-query-cache/writepolicy"
)

const (
	patientsPath = "/pacientes"

	// Successful bodies are always decoded as JSON, whatever Content-Type the
	// API sent. A 2xx body that is not JSON (a proxy's HTML page, say) is an
	// error rather than an empty page.
	jsonContentType = "application/json"
)

// Patient is one patient record as the API returns it.
type Patient struct {
	ID       int    `json:"id,omitempty"`
	Nombre   string `json:"nombre"`
	DNI      string `json:"dni"`
	FechaNac string `json:"fecha_nac"`
	Sexo     string `json:"sexo"`
}

// Columns the patients listing can be sorted by.
var SortFields = []string{"nombre", "dni", "fecha_nac", "sexo"}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("record api: status %d: %s", e.Code, e.Body)
}

type Client struct {
	http   *resty.Client
	policy writepolicy.WritePolicy
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		policy: writepolicy.Nop{},
	}
}

// SetWritePolicy decides what happens to caches after a successful write.
func (c *Client) SetWritePolicy(p writepolicy.WritePolicy) {
	if p == nil {
		p = writepolicy.Nop{}
	}
	c.policy = p
}

type patientsPage struct {
	Data []Patient `json:"data"`
	Meta types.Meta `json:"meta"`
}

// ListPatients fetches one page of patients.
func (c *Client) ListPatients(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	var page patientsPage

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":      strconv.Itoa(q.Page),
			"pageSize":  strconv.Itoa(q.PageSize),
			"sortBy":    q.SortBy,
			"sortOrder": string(q.SortOrder),
			"search":    q.Search,
		}).
		SetResult(&page).
		ForceContentType(jsonContentType).
		Get(patientsPath)
	if err != nil {
		return types.PaginatedResult{}, errors.Wrap(err, "list patients")
	}
	if resp.IsError() {
		return types.PaginatedResult{}, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	data := make([]types.Record, len(page.Data))
	for i, p := range page.Data {
		data[i] = p
	}
	return types.PaginatedResult{Data: data, Meta: page.Meta}, nil
}

// Load makes the client usable as the cache's types.Loader.
func (c *Client) Load(ctx context.Context, q types.Query) (types.PaginatedResult, error) {
	return c.ListPatients(ctx, q)
}

func (c *Client) CreatePatient(ctx context.Context, p Patient) (Patient, error) {
	var created Patient

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&created).
		ForceContentType(jsonContentType).
		Post(patientsPath)
	if err != nil {
		return Patient{}, errors.Wrap(err, "create patient")
	}
	if resp.IsError() {
		return Patient{}, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	c.policy.OnWrite(ctx, writepolicy.Create, created.ID)
	return created, nil
}

func (c *Client) UpdatePatient(ctx context.Context, id int, p Patient) (Patient, error) {
	var updated Patient

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetBody(p).
		SetResult(&updated).
		ForceContentType(jsonContentType).
		Put(patientsPath + "/{id}")
	if err != nil {
		return Patient{}, errors.Wrapf(err, "update patient %d", id)
	}
	if resp.IsError() {
		return Patient{}, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	c.policy.OnWrite(ctx, writepolicy.Update, id)
	return updated, nil
}

func (c *Client) DeletePatient(ctx context.Context, id int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Delete(patientsPath + "/{id}")
	if err != nil {
		return errors.Wrapf(err, "delete patient %d", id)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	c.policy.OnWrite(ctx, writepolicy.Delete, id)
	return nil
}
