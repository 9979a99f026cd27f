package http

import (
	"net/http"

	"fintrack/internal/validate"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.Ensure(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(profile).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := validate.Profile(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.profiles.Update(r.Context(), currentUser(r), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(updated).Message("Profile updated successfully").Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.profiles.Budgets(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(budgets).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.Budget(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.profiles.CreateBudget(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created().Data(created).Message("Budget created successfully").Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.profiles.DeleteBudget(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK().Message("Budget deleted successfully").Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.profiles.Goals(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(goals).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.Goal(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.profiles.CreateGoal(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created().Data(created).Message("Goal created successfully").Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.profiles.DeleteGoal(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK().Message("Goal deleted successfully").Write(w)
}
