package core

// CategoryTotals are the headline counts for the categories widget, computed
// over active categories only. TotalBudget and BudgetedCategories cover
// categories that have a budget ceiling configured.
type CategoryTotals struct {
	TotalCategories    int64 `json:"totalCategories"`
	IncomeCategories   int64 `json:"incomeCategories"`
	ExpenseCategories  int64 `json:"expenseCategories"`
	TotalBudget        Money `json:"totalBudget"`
	BudgetedCategories int64 `json:"budgetedCategories"`
}

// TransactionStats aggregates completed transactions inside a period window.
// Every numeric field is zero, never null, when the window is empty.
type TransactionStats struct {
	TotalIncome        Money  `json:"totalIncome"`
	TotalExpenses      Money  `json:"totalExpenses"`
	NetAmount          Money  `json:"netAmount"`
	TransactionCount   int64  `json:"transactionCount"`
	AverageIncome      Money  `json:"averageIncome"`
	AverageExpense     Money  `json:"averageExpense"`
	TopCategory        string `json:"topCategory,omitempty"`
	RecentTransactions int64  `json:"recentTransactions"`
}

// MonthlySummary is one month bucket of a yearly income/expense series.
// Only months that actually hold transactions are emitted.
type MonthlySummary struct {
	Month            int   `json:"month"`
	Year             int   `json:"year"`
	Income           Money `json:"income"`
	Expenses         Money `json:"expenses"`
	Net              Money `json:"net"`
	TransactionCount int64 `json:"transactionCount"`
}

// CategorySpending is one category's share of completed expense spend inside
// a period window. Percentages across the returned set sum to 100 (0 when
// the window has no expense transactions).
type CategorySpending struct {
	CategoryID       string  `json:"categoryId"`
	CategoryName     string  `json:"categoryName"`
	CategoryIcon     string  `json:"categoryIcon,omitempty"`
	TotalAmount      Money   `json:"totalAmount"`
	TransactionCount int64   `json:"transactionCount"`
	AverageAmount    Money   `json:"averageAmount"`
	Percentage       float64 `json:"percentage"`
}

// BudgetUtilization reports current-month spend against a category's budget
// ceiling, ordered so the categories closest to (or over) budget come first.
type BudgetUtilization struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Budget       Money   `json:"budget"`
	Spent        Money   `json:"spent"`
	Remaining    Money   `json:"remaining"`
	Utilization  float64 `json:"utilization"`
	OverBudget   bool    `json:"overBudget"`
}

// Round2 rounds a percentage figure to at most two decimal places, half up.
func Round2(f float64) float64 {
	if f < 0 {
		return -Round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}
