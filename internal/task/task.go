package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Fanchen-Meng/online-study-room/internal/store"
)

// MaxTitleLen matches the width of the title column.
const MaxTitleLen = 100

var ErrMalformed = errors.New("malformed request")

// CreateRequest is the body of POST /api/tasks. Pointer fields tell a
// missing key apart from a zero value.
type CreateRequest struct {
	Title    *string `json:"title"`
	Duration *int    `json:"duration"`
}

// UpdateRequest is the body of PUT /api/tasks/{id}.
type UpdateRequest struct {
	ActualTime *int  `json:"actual_time"`
	Completed  *bool `json:"completed"`
}

func DecodeCreate(r io.Reader) (CreateRequest, error) {
	var req CreateRequest
	if err := decodeOne(r, &req); err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := req.Validate(); err != nil {
		return CreateRequest{}, err
	}
	return req, nil
}

func (r CreateRequest) Validate() error {
	if r.Title == nil || strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrMalformed)
	}
	if utf8.RuneCountInString(*r.Title) > MaxTitleLen {
		return fmt.Errorf("%w: title longer than %d characters", ErrMalformed, MaxTitleLen)
	}
	if r.Duration == nil {
		return fmt.Errorf("%w: duration is required", ErrMalformed)
	}
	return nil
}

// DecodeUpdate accepts an empty body as an empty update.
func DecodeUpdate(r io.Reader) (UpdateRequest, error) {
	var req UpdateRequest
	if err := decodeOne(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return UpdateRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return req, nil
}

// decodeOne reads exactly one JSON value from r; anything after it but
// whitespace is an error.
func decodeOne(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

type Manager struct {
	st  *store.Store
	now func() time.Time
}

func NewManager(st *store.Store) *Manager { return &Manager{st: st, now: time.Now} }

func (m *Manager) Create(ctx context.Context, req CreateRequest) (store.Task, error) {
	if err := req.Validate(); err != nil {
		return store.Task{}, err
	}
	return m.st.CreateTask(ctx, *req.Title, *req.Duration, m.now())
}

func (m *Manager) Update(ctx context.Context, id int64, req UpdateRequest) (store.Task, error) {
	return m.st.UpdateTask(ctx, id, store.Patch{ActualTime: req.ActualTime, Completed: req.Completed})
}

func (m *Manager) Get(ctx context.Context, id int64) (store.Task, error) {
	return m.st.GetTask(ctx, id)
}

func (m *Manager) List(ctx context.Context) ([]store.Task, error) {
	return m.st.All(ctx)
}

func (m *Manager) Stats(ctx context.Context) (store.Stats, error) {
	return m.st.Stats(ctx)
}
