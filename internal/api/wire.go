package api

import (
	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

// amount is a decimal sent to the backend as a bare JSON number. Incoming
// values may be numbers, numeric strings or null.
type amount struct {
	decimal.Decimal
}

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

type transactionDTO struct {
	ID          string    `json:"_id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Category    string    `json:"categoria"`
	Description string    `json:"descricao"`
	Amount      amount    `json:"valor"`
	Date        core.Date `json:"data"`
	Kind        string    `json:"tipo"`
}

type salaryConfigDTO struct {
	UserID            string `json:"userId,omitempty"`
	Type              string `json:"salarioTipo"`
	WholeAmount       amount `json:"salarioInteiro"`
	Day15Amount       amount `json:"salarioDia15"`
	Day30Amount       amount `json:"salarioDia30"`
	ExtraIncomeTarget amount `json:"metaRecebimento"`
}

type recurringIncomeDTO struct {
	ID         string `json:"_id,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Name       string `json:"nome"`
	Amount     amount `json:"valor"`
	DayOfMonth int    `json:"diaRecebimento"`
}

type fixedCostDTO struct {
	ID          string    `json:"_id,omitempty"`
	Description string    `json:"descricao"`
	Amount      amount    `json:"valor"`
	Category    string    `json:"categoria"`
	Type        string    `json:"tipo"`
	DueDay      int       `json:"diaVencimento,omitempty"`
	EndDate     core.Date `json:"dataFim"`
}

// User is the identity returned by a successful login.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

var (
	salaryTypeToWire = map[core.SalaryType]string{
		core.SalaryWhole: "inteiro",
		core.SalarySplit: "dividido",
	}
	fixedTypeToWire = map[core.FixedCostType]string{
		core.FixedRecurring:   "recorrente",
		core.FixedInstallment: "parcelado",
	}
)

func reverse[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	salaryTypeFromWire = reverse(salaryTypeToWire)
	fixedTypeFromWire  = reverse(fixedTypeToWire)
)

// toCore treats every record not marked as income as an expense, including
// records without a tipo.
func (d transactionDTO) toCore() core.Transaction {
	kind := core.Expense
	if core.Kind(d.Kind) == core.Income {
		kind = core.Income
	}
	return core.Transaction{
		ID:          d.ID,
		Date:        d.Date,
		Category:    d.Category,
		Description: d.Description,
		Amount:      d.Amount.Decimal,
		Kind:        kind,
	}
}

func transactionFromCore(userID string, t core.Transaction) transactionDTO {
	category := t.Category
	if t.IsIncome() {
		category = core.IncomeCategory
	}
	return transactionDTO{
		UserID:      userID,
		Category:    category,
		Description: t.Description,
		Amount:      amount{t.Amount},
		Date:        t.Date,
		Kind:        string(t.Kind),
	}
}

// toCore maps the backend salary type. Unknown values pass through so the
// cycle resolver can apply its fallback.
func (d salaryConfigDTO) toCore() core.SalaryConfig {
	typ, ok := salaryTypeFromWire[d.Type]
	if !ok {
		typ = core.SalaryType(d.Type)
	}
	return core.SalaryConfig{
		Type:              typ,
		WholeAmount:       d.WholeAmount.Decimal,
		Day15Amount:       d.Day15Amount.Decimal,
		Day30Amount:       d.Day30Amount.Decimal,
		ExtraIncomeTarget: d.ExtraIncomeTarget.Decimal,
	}
}

func salaryConfigFromCore(userID string, c core.SalaryConfig) salaryConfigDTO {
	return salaryConfigDTO{
		UserID:            userID,
		Type:              salaryTypeToWire[c.Type],
		WholeAmount:       amount{c.WholeAmount},
		Day15Amount:       amount{c.Day15Amount},
		Day30Amount:       amount{c.Day30Amount},
		ExtraIncomeTarget: amount{c.ExtraIncomeTarget},
	}
}

func (d recurringIncomeDTO) toCore() core.RecurringIncome {
	return core.RecurringIncome{ID: d.ID, Name: d.Name, Amount: d.Amount.Decimal, DayOfMonth: d.DayOfMonth}
}

func recurringIncomeFromCore(userID string, ri core.RecurringIncome) recurringIncomeDTO {
	return recurringIncomeDTO{UserID: userID, Name: ri.Name, Amount: amount{ri.Amount}, DayOfMonth: ri.DayOfMonth}
}

func (d fixedCostDTO) toCore() core.FixedCost {
	return core.FixedCost{
		ID:          d.ID,
		Description: d.Description,
		Amount:      d.Amount.Decimal,
		Category:    d.Category,
		Type:        fixedTypeFromWire[d.Type],
		DueDay:      d.DueDay,
		EndDate:     d.EndDate,
	}
}

func fixedCostFromCore(fc core.FixedCost) fixedCostDTO {
	return fixedCostDTO{
		Description: fc.Description,
		Amount:      amount{fc.Amount},
		Category:    fc.Category,
		Type:        fixedTypeToWire[fc.Type],
		DueDay:      fc.DueDay,
		EndDate:     fc.EndDate,
	}
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
