package views

import (
	"context"
	"fmt"

	"mindconnect/internal/model"
)

// Motivations backs both the admin CRUD screen and the public motivation page.
type Motivations struct {
	*List[model.Motivation]
	d Deps
}

func NewMotivations(d Deps) *Motivations {
	res := Resource[model.Motivation]{
		Name:   "motivations",
		Prompt: "Are you sure you want to delete this motivational content?",
		ID:     func(m model.Motivation) int64 { return m.ID },
		Fetch:  d.API.Motivations,
		Create: d.API.CreateMotivation,
		Update: d.API.UpdateMotivation,
		Remove: d.API.DeleteMotivation,
		Validate: func(m model.Motivation, _ bool) error {
			return m.Validate()
		},
	}
	return &Motivations{List: NewList(res, d.logger()), d: d}
}

// Toggle flips the active flag on the backend and refetches.
func (m *Motivations) Toggle(ctx context.Context, id int64) error {
	if err := m.d.API.ToggleMotivation(ctx, id); err != nil {
		m.log.Error("toggle failed", "id", id, "err", err)
		return fmt.Errorf("toggle motivation %d: %w", id, err)
	}
	m.refresh(ctx)
	return nil
}

// Active is what the public motivation page shows.
func (m *Motivations) Active() []model.Motivation {
	var out []model.Motivation
	for _, it := range m.Items() {
		if it.Active {
			out = append(out, it)
		}
	}
	return out
}

// ActiveMotivations loads the list and returns only the active entries.
func ActiveMotivations(ctx context.Context, d Deps) ([]model.Motivation, error) {
	m := NewMotivations(d)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m.Active(), nil
}
