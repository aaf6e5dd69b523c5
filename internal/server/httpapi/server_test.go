package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanadev/arcana/internal/common"
	"github.com/arcanadev/arcana/internal/logging"
	"github.com/arcanadev/arcana/internal/server/models"
	"github.com/arcanadev/arcana/internal/server/repositories/readings"
	"github.com/arcanadev/arcana/internal/server/services"
)

type fakeUsers struct {
	registered map[string]string // email → password
}

func (f *fakeUsers) Register(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.registered == nil {
		f.registered = map[string]string{}
	}
	f.registered[email] = password
	return &services.TokenPair{UserID: "u-" + email, AccessToken: "at-" + email, RefreshToken: "rt-" + email}, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.registered[email] != password {
		return nil, common.ErrUnauthorized
	}
	return &services.TokenPair{UserID: "u-" + email, AccessToken: "at-" + email, RefreshToken: "rt-" + email}, nil
}

func (f *fakeUsers) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if refreshToken == "expired" {
		return nil, common.ErrRefreshTokenExpired
	}
	return &services.TokenPair{UserID: "u1", AccessToken: "at2", RefreshToken: "rt2"}, nil
}

func (f *fakeUsers) ParseAccessToken(token string) (string, error) {
	if token == "bad" {
		return "", common.ErrUnauthorized
	}
	return "uid-" + token, nil
}

type memFolders struct {
	seq  int
	rows []models.Folder
}

func (m *memFolders) ListByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range m.rows {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFolders) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	m.seq++
	folder.ID = "f" + strconv.Itoa(m.seq)
	m.rows = append(m.rows, *folder)
	return folder, nil
}

func (m *memFolders) Rename(ctx context.Context, ownerID, id, name string) (*models.Folder, error) {
	for i := range m.rows {
		if m.rows[i].OwnerID == ownerID && m.rows[i].ID == id {
			m.rows[i].Name = name
			f := m.rows[i]
			return &f, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memFolders) Delete(ctx context.Context, ownerID, id string) error {
	out := m.rows[:0]
	for _, f := range m.rows {
		if !(f.OwnerID == ownerID && f.ID == id) {
			out = append(out, f)
		}
	}
	m.rows = out
	return nil
}

type memReadings struct {
	seq  int
	rows []models.Reading
}

func (m *memReadings) ListByOwner(ctx context.Context, ownerID string) ([]models.Reading, error) {
	var out []models.Reading
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReadings) Create(ctx context.Context, reading *models.Reading) (*models.Reading, error) {
	m.seq++
	reading.ID = "r" + strconv.Itoa(m.seq)
	m.rows = append(m.rows, *reading)
	return reading, nil
}

func (m *memReadings) Update(ctx context.Context, ownerID, id string, patch readings.Patch) (*models.Reading, error) {
	for i := range m.rows {
		if m.rows[i].OwnerID == ownerID && m.rows[i].ID == id {
			if patch.Title != nil {
				m.rows[i].Title = *patch.Title
			}
			if patch.Spreads != nil {
				m.rows[i].Spreads = patch.Spreads
			}
			if patch.Reflection != nil {
				m.rows[i].Reflection = *patch.Reflection
			}
			if patch.ReadingDate != nil {
				m.rows[i].ReadingDate = *patch.ReadingDate
			}
			if patch.FolderID != nil {
				m.rows[i].FolderID = *patch.FolderID
			}
			r := m.rows[i]
			return &r, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memReadings) Delete(ctx context.Context, ownerID, id string) error {
	out := m.rows[:0]
	for _, r := range m.rows {
		if !(r.OwnerID == ownerID && r.ID == id) {
			out = append(out, r)
		}
	}
	m.rows = out
	return nil
}

func (m *memReadings) DeleteByFolder(ctx context.Context, ownerID, folderID string) error {
	out := m.rows[:0]
	for _, r := range m.rows {
		if !(r.OwnerID == ownerID && r.FolderID == folderID) {
			out = append(out, r)
		}
	}
	m.rows = out
	return nil
}

type memNotes struct {
	rows []models.CardNote
}

func (m *memNotes) ListByOwner(ctx context.Context, ownerID string) ([]models.CardNote, error) {
	var out []models.CardNote
	for _, n := range m.rows {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotes) Upsert(ctx context.Context, note *models.CardNote) error {
	for i := range m.rows {
		if m.rows[i].OwnerID == note.OwnerID && m.rows[i].CardID == note.CardID {
			m.rows[i].Notes = note.Notes
			return nil
		}
	}
	m.rows = append(m.rows, *note)
	return nil
}

func newTestServer(t *testing.T) (*Server, *memFolders, *memReadings, *memNotes) {
	t.Helper()
	fr := &memFolders{}
	rr := &memReadings{}
	cn := &memNotes{}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(&fakeUsers{}, fr, rr, cn, log), fr, rr, cn
}

func doRequest(t *testing.T, s *Server, method, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reqBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

var deviceHeaders = map[string]string{common.DeviceIDHeaderName: "d1"}

func TestHealth(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/folders", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "unauthorized", payload["code"])
}

func TestBadBearerTokenRejected(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/folders",
		map[string]string{common.AccessTokenHeaderName: "Bearer bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFolderLifecycle(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	created := doRequest(t, s, http.MethodPost, "/v1/folders", deviceHeaders, map[string]any{
		"name":       "Daily",
		"local_id":   "client-1",
		"created_at": "2024-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var folder folderPayload
	require.NoError(t, json.NewDecoder(created.Body).Decode(&folder))
	assert.NotEmpty(t, folder.ID)
	assert.Equal(t, "client-1", folder.LocalID)
	assert.Equal(t, "2024-01-01T00:00:00Z", folder.CreatedAt)

	renamed := doRequest(t, s, http.MethodPatch, "/v1/folders/"+folder.ID, deviceHeaders,
		map[string]string{"name": "Weekly"})
	require.Equal(t, http.StatusOK, renamed.Code)

	list := doRequest(t, s, http.MethodGet, "/v1/folders", deviceHeaders, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var folders []folderPayload
	require.NoError(t, json.NewDecoder(list.Body).Decode(&folders))
	require.Len(t, folders, 1)
	assert.Equal(t, "Weekly", folders[0].Name)

	deleted := doRequest(t, s, http.MethodDelete, "/v1/folders/"+folder.ID, deviceHeaders, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	// Idempotent: deleting again still succeeds.
	again := doRequest(t, s, http.MethodDelete, "/v1/folders/"+folder.ID, deviceHeaders, nil)
	assert.Equal(t, http.StatusNoContent, again.Code)
}

func TestRenameMissingFolderIs404(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPatch, "/v1/folders/nope", deviceHeaders,
		map[string]string{"name": "X"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "not_found", payload["code"])
}

func TestOwnersAreIsolated(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/v1/folders", deviceHeaders, map[string]any{"name": "Mine"})

	other := map[string]string{common.DeviceIDHeaderName: "d2"}
	list := doRequest(t, s, http.MethodGet, "/v1/folders", other, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var folders []folderPayload
	require.NoError(t, json.NewDecoder(list.Body).Decode(&folders))
	assert.Empty(t, folders)
}

func TestUserScopeFromBearerToken(t *testing.T) {
	s, fr, _, _ := newTestServer(t)

	headers := map[string]string{common.AccessTokenHeaderName: "Bearer tok"}
	rec := doRequest(t, s, http.MethodPost, "/v1/folders", headers, map[string]any{"name": "Mine"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, fr.rows, 1)
	assert.Equal(t, "user:uid-tok", fr.rows[0].OwnerID)
}

func TestReadingLifecycle(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	spreads := []map[string]any{{
		"question": "What now?",
		"cards":    []map[string]any{{"card_id": "major-00"}},
	}}
	created := doRequest(t, s, http.MethodPost, "/v1/readings", deviceHeaders, map[string]any{
		"folder_id":    "f1",
		"title":        "Morning",
		"spreads":      spreads,
		"reading_date": "2024-01-02",
		"local_id":     "client-r1",
		"created_at":   "2024-01-02T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var reading readingPayload
	require.NoError(t, json.NewDecoder(created.Body).Decode(&reading))
	assert.NotEmpty(t, reading.ID)
	assert.Equal(t, "client-r1", reading.LocalID)

	// Partial update touches only the title.
	patched := doRequest(t, s, http.MethodPatch, "/v1/readings/"+reading.ID, deviceHeaders,
		map[string]any{"title": "Evening"})
	require.Equal(t, http.StatusOK, patched.Code)

	var updated readingPayload
	require.NoError(t, json.NewDecoder(patched.Body).Decode(&updated))
	assert.Equal(t, "Evening", updated.Title)
	assert.Equal(t, "2024-01-02", updated.ReadingDate)
	assert.JSONEq(t, mustJSON(t, spreads), string(updated.Spreads))

	deleted := doRequest(t, s, http.MethodDelete, "/v1/readings/"+reading.ID, deviceHeaders, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestBulkDeleteReadingsByFolder(t *testing.T) {
	s, _, rr, _ := newTestServer(t)

	for i, folder := range []string{"f1", "f1", "f2"} {
		rec := doRequest(t, s, http.MethodPost, "/v1/readings", deviceHeaders, map[string]any{
			"folder_id":    folder,
			"reading_date": fmt.Sprintf("2024-01-0%d", i+1),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, s, http.MethodDelete, "/v1/readings?folder_id=f1", deviceHeaders, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, rr.rows, 1)
	assert.Equal(t, "f2", rr.rows[0].FolderID)
}

func TestBulkDeleteRequiresFolderID(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodDelete, "/v1/readings", deviceHeaders, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCardNotesUpsertAndList(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	put := doRequest(t, s, http.MethodPut, "/v1/card-notes/major-00", deviceHeaders,
		map[string]string{"notes": "beginnings"})
	require.Equal(t, http.StatusOK, put.Code)

	// Overwrite.
	put = doRequest(t, s, http.MethodPut, "/v1/card-notes/major-00", deviceHeaders,
		map[string]string{"notes": "fresh starts"})
	require.Equal(t, http.StatusOK, put.Code)

	list := doRequest(t, s, http.MethodGet, "/v1/card-notes", deviceHeaders, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var notes []cardNotePayload
	require.NoError(t, json.NewDecoder(list.Body).Decode(&notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "major-00", notes[0].CardID)
	assert.Equal(t, "fresh starts", notes[0].Notes)
}

func TestAuthEndpoints(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	reg := doRequest(t, s, http.MethodPost, "/v1/auth/register", nil,
		map[string]string{"email": "a@b.c", "password": "pw"})
	require.Equal(t, http.StatusOK, reg.Code)

	var pair tokenPairPayload
	require.NoError(t, json.NewDecoder(reg.Body).Decode(&pair))
	assert.Equal(t, "u-a@b.c", pair.UserID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	login := doRequest(t, s, http.MethodPost, "/v1/auth/login", nil,
		map[string]string{"email": "a@b.c", "password": "pw"})
	assert.Equal(t, http.StatusOK, login.Code)

	badLogin := doRequest(t, s, http.MethodPost, "/v1/auth/login", nil,
		map[string]string{"email": "a@b.c", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, badLogin.Code)

	refresh := doRequest(t, s, http.MethodPost, "/v1/auth/refresh", nil,
		map[string]string{"refresh_token": "rt"})
	assert.Equal(t, http.StatusOK, refresh.Code)

	expired := doRequest(t, s, http.MethodPost, "/v1/auth/refresh", nil,
		map[string]string{"refresh_token": "expired"})
	require.Equal(t, http.StatusUnauthorized, expired.Code)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(expired.Body).Decode(&payload))
	assert.Equal(t, "refresh_token_expired", payload["code"])

	missing := doRequest(t, s, http.MethodPost, "/v1/auth/register", nil,
		map[string]string{"email": "", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestCreateFolderDefaultsCreatedAt(t *testing.T) {
	s, fr, _, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/folders", deviceHeaders, map[string]any{"name": "NoDate"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, fr.rows, 1)
	assert.WithinDuration(t, time.Now(), fr.rows[0].CreatedAt, 5*time.Second)
}
