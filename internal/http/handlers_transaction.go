package http

import (
	"net/http"

	"fintrack/internal/validate"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := validate.TransactionListQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := s.transactions.List(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(items).Paginate(q.Page, q.Limit, total).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := validate.Transaction(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created().Data(created).Message("Transaction created successfully").Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transaction, err := s.transactions.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(transaction).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	patch, err := validate.TransactionUpdate(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.transactions.Update(r.Context(), currentUser(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(updated).Message("Transaction updated successfully").Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK().Message("Transaction deleted successfully").Write(w)
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	q, err := validate.StatsQuery(r.URL.Query(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.analytics.Stats(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(stats).Write(w)
}

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := validate.StatsQuery(r.URL.Query(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	months, err := s.analytics.Monthly(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(months).Write(w)
}

func (s *Server) handleCategorySpending(w http.ResponseWriter, r *http.Request) {
	q, err := validate.StatsQuery(r.URL.Query(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	spending, err := s.analytics.Spending(r.Context(), currentUser(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(spending).Write(w)
}

func (s *Server) handleBudgetAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := s.analytics.BudgetView(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK().Data(rows).Write(w)
}
