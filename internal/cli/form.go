package cli

import (
	"context"
	"errors"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/charmbracelet/huh"
)

// ErrFormAborted is returned when the user leaves the form without submitting.
var ErrFormAborted = errors.New("form aborted")

// CategoryChoice is a category offered by the expense form with its
// subcategories.
type CategoryChoice struct {
	Subcategories []model.Subcategory
	Category      model.Category
}

// ExpenseForm collects a new expense interactively.
type ExpenseForm struct {
	choices       []CategoryChoice
	date          string
	amount        string
	description   string
	method        model.PaymentMethod
	categoryID    int64
	subcategoryID int64
	fixed         bool
}

// NewExpenseForm prepares a form whose date defaults to today.
func NewExpenseForm(choices []CategoryChoice, today string) *ExpenseForm {
	f := &ExpenseForm{
		choices: choices,
		date:    today,
		method:  model.PaymentCreditCard,
	}
	if len(choices) > 0 {
		f.categoryID = choices[0].Category.ID
	}
	return f
}

func (f *ExpenseForm) subcategoryOptions() []huh.Option[int64] {
	opts := []huh.Option[int64]{huh.NewOption("(none)", int64(0))}
	for _, c := range f.choices {
		if c.Category.ID != f.categoryID {
			continue
		}
		for _, s := range c.Subcategories {
			opts = append(opts, huh.NewOption(s.Name, s.ID))
		}
	}
	return opts
}

func (f *ExpenseForm) build() *huh.Form {
	categories := make([]huh.Option[int64], 0, len(f.choices))
	for _, c := range f.choices {
		categories = append(categories, huh.NewOption(c.Category.Name, c.Category.ID))
	}

	methods := make([]huh.Option[model.PaymentMethod], 0, len(model.PaymentMethods()))
	for _, m := range model.PaymentMethods() {
		methods = append(methods, huh.NewOption(m.Label(), m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&f.date).
				Validate(func(s string) error {
					_, err := model.ParseDate(s)
					return err
				}),
			huh.NewInput().
				Title("Amount").
				Value(&f.amount).
				Validate(func(s string) error {
					_, err := model.ParseAmount(s)
					return err
				}),
			huh.NewInput().
				Title("Description").
				CharLimit(model.MaxDescriptionLength).
				Value(&f.description),
		),
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title("Category").
				Options(categories...).
				Value(&f.categoryID),
			huh.NewSelect[int64]().
				Title("Subcategory").
				OptionsFunc(f.subcategoryOptions, &f.categoryID).
				Value(&f.subcategoryID),
			huh.NewSelect[model.PaymentMethod]().
				Title("Payment method").
				Options(methods...).
				Value(&f.method),
			huh.NewConfirm().
				Title("Fixed cost?").
				Value(&f.fixed),
		),
	).WithTheme(huh.ThemeCharm())
}

// Run shows the form and returns the entered expense.
func (f *ExpenseForm) Run(ctx context.Context) (model.NewExpense, error) {
	if len(f.choices) == 0 {
		return model.NewExpense{}, common.Validationf("no categories to choose from; run `ledger categories seed` first")
	}
	if err := f.build().RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return model.NewExpense{}, ErrFormAborted
		}
		return model.NewExpense{}, err
	}
	return f.Result()
}

// Result converts the collected answers into an expense.
func (f *ExpenseForm) Result() (model.NewExpense, error) {
	date, err := model.ParseDate(f.date)
	if err != nil {
		return model.NewExpense{}, err
	}
	amount, err := model.ParseAmount(f.amount)
	if err != nil {
		return model.NewExpense{}, err
	}

	exp := model.NewExpense{
		Date:          date,
		CategoryID:    f.categoryID,
		Amount:        amount,
		Description:   f.description,
		PaymentMethod: f.method,
		IsFixed:       f.fixed,
	}
	if f.subcategoryID != 0 {
		sub := f.subcategoryID
		exp.SubcategoryID = &sub
	}
	return exp, exp.Validate()
}

// Confirm asks a yes/no question. It defaults to no.
func Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithTheme(huh.ThemeCharm()).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
