package http

import (
	"net/http"

	"fintrack/internal/validate"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q, err := validate.CategoryListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := s.categories.List(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(items).Paginate(q.Page, q.Limit, total).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.Category(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.categories.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created().Data(created).Message("Category created successfully").Write(w)
}

func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	totals, err := s.categories.Stats(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(totals).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.categories.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(category).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := validate.CategoryUpdate(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.categories.Update(r.Context(), currentUser(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(updated).Message("Category updated successfully").Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	archived, err := s.categories.Delete(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Category deleted successfully"
	if archived {
		message = "Category archived because transactions reference it"
	}
	OK().Message(message).Write(w)
}
