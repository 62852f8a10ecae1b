package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/store"
	"github.com/fpang/styleai/internal/wardrobe"
)

// fakeFlows answers every flow with canned data and counts calls.
type fakeFlows struct {
	mu          sync.Mutex
	describes   int
	lastSuggest schema.SuggestionInput
	lastSummary schema.SummaryInput

	describeOut schema.DescriptionOutput
	err         error
}

func (f *fakeFlows) GenerateDescription(_ context.Context, in schema.DescriptionInput, _ ...chat.CallOption) (schema.DescriptionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := schema.ValidateDescriptionInput(in); err != nil {
		return schema.DescriptionOutput{}, err
	}
	f.describes++
	if f.err != nil {
		return schema.DescriptionOutput{}, f.err
	}
	return f.describeOut, nil
}

func (f *fakeFlows) SuggestOutfit(_ context.Context, in schema.SuggestionInput, _ ...chat.CallOption) (schema.SuggestionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSuggest = in
	if f.err != nil {
		return schema.SuggestionOutput{}, f.err
	}
	return schema.SuggestionOutput{Suggestion: "Wear the white shirt.", Reasoning: "It is hot."}, nil
}

func (f *fakeFlows) ExtractOutfitItems(_ context.Context, in schema.ExtractionInput, _ ...chat.CallOption) ([]wardrobe.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	var matches []wardrobe.Match
	for _, it := range in.Wardrobe {
		if it.Category == wardrobe.CategoryTop {
			matches = append(matches, wardrobe.Match{ID: it.ID})
		}
	}
	return wardrobe.Reconcile(matches, in.Wardrobe), nil
}

func (f *fakeFlows) SummarizeWardrobe(_ context.Context, in schema.SummaryInput, _ ...chat.CallOption) (schema.SummaryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSummary = in
	return schema.SummaryOutput{WardrobeSummary: "Mostly casual tops."}, nil
}

func (f *fakeFlows) GenerateSpeech(_ context.Context, text string, _ ...chat.CallOption) schema.SpeechResult {
	if strings.TrimSpace(text) == "" {
		return schema.SpeechResult{}
	}
	return schema.SpeechResult{Audio: "data:audio/wav;base64,UklGRg=="}
}

// failingStore fails every operation.
type failingStore struct{}

var errBackend = errors.New("backend unavailable")

func (failingStore) Add(context.Context, schema.NewItem) (wardrobe.Item, error) {
	return wardrobe.Item{}, errBackend
}
func (failingStore) Update(context.Context, wardrobe.Item) error { return errBackend }
func (failingStore) Delete(context.Context, string) error { return errBackend }
func (failingStore) List(context.Context) ([]wardrobe.Item, error) { return nil, errBackend }
func (failingStore) Get(context.Context, string) (*wardrobe.Item, error) { return nil, errBackend }

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestServer(t *testing.T, flows Flows, ws store.WardrobeStore) (*httptest.Server, *store.View) {
	t.Helper()
	view := store.NewView(ws)
	srv := httptest.NewServer(New(flows, view, WithLanguage("en")).Handler())
	t.Cleanup(srv.Close)
	return srv, view
}

func doJSON(t *testing.T, method, url string, body any, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if s, ok := body.(string); ok {
		rd = bytes.NewReader([]byte(s))
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error body, got %v", body)
	return e
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["items"])
}

func TestDescribe(t *testing.T) {
	flows := &fakeFlows{describeOut: schema.DescriptionOutput{Description: "A white linen shirt", Category: wardrobe.CategoryTop}}
	srv, _ := newTestServer(t, flows, store.NewMemoryStore("u1"))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", map[string]any{"photoDataUri": pngDataURI(t)}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "A white linen shirt", body["description"])
	assert.Equal(t, "Top", body["category"])
}

func TestDescribe_InvalidPhotoIsBadRequest(t *testing.T) {
	flows := &fakeFlows{}
	srv, _ := newTestServer(t, flows, store.NewMemoryStore("u1"))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", map[string]any{"photoDataUri": "data:text/plain;base64,aGk="}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, kindInvalidInput, errorOf(t, body)["kind"])
	assert.Zero(t, flows.describes)
}

func TestDescribe_InvalidOutputIsBadGateway(t *testing.T) {
	flows := &fakeFlows{err: schema.InvalidOutput(schema.OpDescribe, errors.New("unexpected token"))}
	srv, _ := newTestServer(t, flows, store.NewMemoryStore("u1"))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", map[string]any{"photoDataUri": pngDataURI(t)}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	e := errorOf(t, body)
	assert.Equal(t, kindInvalidOutput, e["kind"])
	assert.Equal(t, titleGeneric, e["title"])
	assert.Contains(t, e["message"], "Please write one manually")
}

func TestTransportErrorIsClassified(t *testing.T) {
	flows := &fakeFlows{err: &genai.APIError{Code: 429, Message: "slow down"}}
	srv, _ := newTestServer(t, flows, store.NewMemoryStore("u1"))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", map[string]any{"photoDataUri": pngDataURI(t)}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	e := errorOf(t, body)
	assert.Equal(t, kindTransport, e["kind"])
	assert.Equal(t, "API rate limit exceeded - try again later", e["message"])
}

func TestMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/suggest", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, kindInvalidInput, errorOf(t, body)["kind"])
}

func TestBodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	huge := `{"photoDataUri":"` + strings.Repeat("A", maxBodyBytes+1) + `"}`
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", huge, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "File too large", errorOf(t, body)["title"])
}

func TestSuggest_UsesStoredWardrobe(t *testing.T) {
	flows := &fakeFlows{}
	srv, view := newTestServer(t, flows, store.NewMemoryStore("u1"))
	_, err := view.Add(context.Background(), schema.NewItem{PhotoDataURI: pngDataURI(t), Description: "White shirt", Category: wardrobe.CategoryTop})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/suggest", map[string]any{"occasion": "Beach", "weather": "Hot"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["suggestion"])
	require.Len(t, flows.lastSuggest.Wardrobe, 1)
	assert.Equal(t, "White shirt", flows.lastSuggest.Wardrobe[0].Description)
	assert.Equal(t, "en", flows.lastSuggest.Language)
}

func TestSuggest_EmptyWardrobe(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/suggest", map[string]any{"occasion": "Beach", "weather": "Hot"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Empty Wardrobe", errorOf(t, body)["title"])
}

func TestSummarize_DescribesStoredWardrobe(t *testing.T) {
	flows := &fakeFlows{}
	srv, view := newTestServer(t, flows, store.NewMemoryStore("u1"))
	_, err := view.Add(context.Background(), schema.NewItem{PhotoDataURI: pngDataURI(t), Description: "White shirt", Category: wardrobe.CategoryTop})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/summarize", map[string]any{}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mostly casual tops.", body["wardrobeSummary"])
	assert.Equal(t, "- Top: White shirt", flows.lastSummary.WardrobeDescription)
}

func TestSpeech_BlankTextHasNoAudio(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/speech", map[string]any{"text": "  "}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "audio")
}

func TestConsult(t *testing.T) {
	srv, view := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	ctx := context.Background()
	shirt, err := view.Add(ctx, schema.NewItem{PhotoDataURI: pngDataURI(t), Description: "White shirt", Category: wardrobe.CategoryTop})
	require.NoError(t, err)
	_, err = view.Add(ctx, schema.NewItem{PhotoDataURI: pngDataURI(t), Description: "Wool coat", Category: wardrobe.CategoryOuterwear})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/consult", map[string]any{
		"occasion": "Beach", "weather": "Hot", "gender": "female",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Gender: female, Occasion: Beach, Weather: Hot", body["request"])
	assert.NotEmpty(t, body["audio"])
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, shirt.ID, items[0].(map[string]any)["id"])
	assert.Equal(t, 2, view.Len(), "consultation does not modify the wardrobe")
}

func TestWardrobeLifecycle(t *testing.T) {
	flows := &fakeFlows{describeOut: schema.DescriptionOutput{Description: "Generated shirt", Category: wardrobe.CategoryTop}}
	srv, view := newTestServer(t, flows, store.NewMemoryStore("u1"))
	photo := pngDataURI(t)

	// Full fields are stored as given.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/wardrobe", map[string]any{
		"photoDataUri": photo, "description": "Blue jeans", "category": "Bottom",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	jeansID, _ := body["id"].(string)
	require.NotEmpty(t, jeansID)
	assert.Zero(t, flows.describes)

	// Missing fields are generated.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/wardrobe", map[string]any{"photoDataUri": photo}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Generated shirt", body["description"])
	assert.Equal(t, "Top", body["category"])
	assert.Equal(t, 1, flows.describes)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/wardrobe", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 2)

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/wardrobe/"+jeansID, map[string]any{
		"photoDataUri": photo, "description": "Black jeans", "category": "Bottom",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Black jeans", body["description"])
	assert.Equal(t, "u1", body["ownerId"])

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/wardrobe/"+jeansID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, view.Len())

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/wardrobe/"+jeansID, map[string]any{
		"photoDataUri": photo, "description": "Black jeans", "category": "Bottom",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, kindNotFound, errorOf(t, body)["kind"])
}

func TestReloadOnRead_SeesOtherInstanceWrites(t *testing.T) {
	shared := store.NewMemoryStore("u1")
	flows := &fakeFlows{}
	newInstance := func() *httptest.Server {
		srv := httptest.NewServer(New(flows, store.NewView(shared), WithReloadOnRead()).Handler())
		t.Cleanup(srv.Close)
		return srv
	}
	a, b := newInstance(), newInstance()

	resp, body := doJSON(t, http.MethodPost, a.URL+"/api/wardrobe", map[string]any{
		"photoDataUri": pngDataURI(t), "description": "White shirt", "category": "Top",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)

	resp, body = doJSON(t, http.MethodGet, b.URL+"/api/wardrobe", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["items"], 1)
	assert.Equal(t, id, body["items"].([]any)[0].(map[string]any)["id"])

	resp, _ = doJSON(t, http.MethodPost, b.URL+"/api/suggest", map[string]any{"occasion": "Beach", "weather": "Hot"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, flows.lastSuggest.Wardrobe, 1)

	resp, body = doJSON(t, http.MethodPost, b.URL+"/api/consult", map[string]any{"occasion": "Beach", "weather": "Hot", "mute": true}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)

	resp, _ = doJSON(t, http.MethodDelete, a.URL+"/api/wardrobe/"+id, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, b.URL+"/api/wardrobe", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, body = doJSON(t, http.MethodPost, b.URL+"/api/suggest", map[string]any{"occasion": "Beach", "weather": "Hot"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Empty Wardrobe", errorOf(t, body)["title"])
}

func TestReloadOnRead_ListFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(New(&fakeFlows{}, store.NewView(failingStore{}), WithReloadOnRead()).Handler())
	t.Cleanup(srv.Close)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/wardrobe", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "operation failed", errorOf(t, body)["message"])
}

func TestStoreFailureIsGeneric(t *testing.T) {
	srv, view := newTestServer(t, &fakeFlows{}, failingStore{})
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/wardrobe", map[string]any{
		"photoDataUri": pngDataURI(t), "description": "Blue jeans", "category": "Bottom",
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := errorOf(t, body)
	assert.Equal(t, "operation failed", e["message"])
	assert.NotContains(t, e["message"], errBackend.Error())
	assert.Zero(t, view.Len())
}

func TestAPIKeyHeaderOverridesDefault(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	gen := generatorFunc(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(`{"description":"A red scarf","category":"Accessory"}`, genai.RoleModel),
		}}}, nil
	})
	client, err := chat.NewClient("server-key", chat.WithGeneratorFactory(func(_ context.Context, key string) (chat.Generator, error) {
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
		return gen, nil
	}))
	require.NoError(t, err)
	srv, _ := newTestServer(t, client, store.NewMemoryStore("u1"))

	header := http.Header{}
	header.Set(APIKeyHeader, "user-key")
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/describe", map[string]any{"photoDataUri": pngDataURI(t)}, header)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Accessory", body["category"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"user-key"}, keys)
}

type generatorFunc func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func (f generatorFunc) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f(ctx, model, contents, config)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFlows{}, store.NewMemoryStore("u1"))
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/wardrobe/abc", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), APIKeyHeader)
}
