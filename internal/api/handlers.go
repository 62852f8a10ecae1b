package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/stylist"
	"github.com/fpang/styleai/internal/wardrobe"
)

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(op, err)
	}
	return nil
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "styleai",
		"items":   s.view.Len(),
	})
}

// --- Flows ---

// POST /api/describe
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var in schema.DescriptionInput
	if err := decode(w, r, schema.OpDescribe, &in); err != nil {
		fail(w, r, err)
		return
	}
	in.Language = s.languageOr(in.Language)

	out, err := s.flows.GenerateDescription(r.Context(), in, callOptions(r)...)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/suggest
//
// An omitted wardrobe means the stored one.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var in schema.SuggestionInput
	if err := decode(w, r, schema.OpSuggest, &in); err != nil {
		fail(w, r, err)
		return
	}
	if in.Wardrobe == nil {
		if err := s.refresh(r); err != nil {
			fail(w, r, err)
			return
		}
		in.Wardrobe = wardrobe.Snapshot(s.view.Items())
	}
	if len(in.Wardrobe) == 0 {
		fail(w, r, stylist.EmptyWardrobe())
		return
	}
	in.Language = s.languageOr(in.Language)

	out, err := s.flows.SuggestOutfit(r.Context(), in, callOptions(r)...)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/extract
//
// An omitted wardrobe means the stored one.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var in schema.ExtractionInput
	if err := decode(w, r, schema.OpExtract, &in); err != nil {
		fail(w, r, err)
		return
	}
	if in.Wardrobe == nil {
		if err := s.refresh(r); err != nil {
			fail(w, r, err)
			return
		}
		in.Wardrobe = s.view.Items()
	}

	items, err := s.flows.ExtractOutfitItems(r.Context(), in, callOptions(r)...)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]wardrobe.Item{"items": items})
}

// POST /api/summarize
//
// An empty description summarizes the stored wardrobe.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var in schema.SummaryInput
	if err := decode(w, r, schema.OpSummarize, &in); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(in.WardrobeDescription) == "" {
		if err := s.refresh(r); err != nil {
			fail(w, r, err)
			return
		}
		in.WardrobeDescription = wardrobe.Describe(s.view.Items())
	}

	out, err := s.flows.SummarizeWardrobe(r.Context(), in, callOptions(r)...)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

type speechRequest struct {
	Text string `json:"text"`
}

// POST /api/speech
//
// Speech never fails: a missing rendition is an empty result.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decode(w, r, schema.OpSpeech, &req); err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.flows.GenerateSpeech(r.Context(), req.Text, callOptions(r)...))
}

// POST /api/consult
func (s *Server) handleConsult(w http.ResponseWriter, r *http.Request) {
	var req stylist.Request
	if err := decode(w, r, schema.OpSuggest, &req); err != nil {
		fail(w, r, err)
		return
	}
	req.Language = s.languageOr(req.Language)
	if err := s.refresh(r); err != nil {
		fail(w, r, err)
		return
	}

	out, err := s.stylist.Consult(r.Context(), req, callOptions(r)...)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// --- Wardrobe ---

// GET /api/wardrobe
func (s *Server) handleListWardrobe(w http.ResponseWriter, r *http.Request) {
	if err := s.refresh(r); err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]wardrobe.Item{"items": s.view.Items()})
}

type addItemRequest struct {
	schema.NewItem
	// Language of a generated description.
	Language string `json:"language,omitempty"`
}

// POST /api/wardrobe
//
// A missing description or category is generated from the photo before the
// item is stored; supplied fields are kept.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(w, r, "add-item", &req); err != nil {
		fail(w, r, err)
		return
	}
	fields := req.NewItem
	fields.Description = strings.TrimSpace(fields.Description)

	if fields.Description == "" || fields.Category == "" {
		out, err := s.flows.GenerateDescription(r.Context(), schema.DescriptionInput{
			PhotoDataURI: fields.PhotoDataURI,
			Language:     s.languageOr(req.Language),
		}, callOptions(r)...)
		if err != nil {
			fail(w, r, err)
			return
		}
		if fields.Description == "" {
			fields.Description = out.Description
		}
		if fields.Category == "" {
			fields.Category = out.Category
		}
		log.Debug().Str("category", string(fields.Category)).Msg("Generated missing item fields")
	}

	item, err := s.view.Add(r.Context(), fields)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// PUT /api/wardrobe/{id}
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var fields schema.NewItem
	if err := decode(w, r, "update-item", &fields); err != nil {
		fail(w, r, err)
		return
	}
	item := wardrobe.Item{
		ID:           r.PathValue("id"),
		PhotoDataURI: fields.PhotoDataURI,
		Description:  strings.TrimSpace(fields.Description),
		Category:     fields.Category,
	}
	if err := s.view.Update(r.Context(), item); err != nil {
		fail(w, r, err)
		return
	}
	if stored, ok := s.view.Get(item.ID); ok {
		item = stored
	}
	respondJSON(w, http.StatusOK, item)
}

// DELETE /api/wardrobe/{id}
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
