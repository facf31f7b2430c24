package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

func (h API) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	list, err := h.Newsletters.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h API) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var p newsletterPayload
	if !bind(w, r, &p) {
		return
	}
	n, err := h.Newsletters.Create(r.Context(), user, p.NewsletterInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// SendNewsletter handles POST /newsletters/{id}/send.
func (h API) SendNewsletter(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	h.send(w, r, id)
}

// SendNewsletterByQuery handles the older PUT /newsletters?id= form.
func (h API) SendNewsletterByQuery(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	h.send(w, r, id)
}

func (h API) send(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.Newsletters.Send(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
