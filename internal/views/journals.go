package views

import (
	"context"
	"fmt"
	"sync"

	"mindconnect/internal/model"
)

const FilterAll = "all"

// Journals is the signed-in user's journal list with a mood filter.
type Journals struct {
	*List[model.Journal]

	mu     sync.RWMutex
	filter string
}

func NewJournals(d Deps) *Journals {
	res := Resource[model.Journal]{
		Name:   "journals",
		Prompt: "Are you sure you want to delete this journal entry?",
		ID:     func(j model.Journal) int64 { return j.ID },
		Fetch: func(ctx context.Context) ([]model.Journal, error) {
			id, err := d.me()
			if err != nil {
				return nil, err
			}
			return d.API.JournalsByUser(ctx, id)
		},
		Create: func(ctx context.Context, j model.Journal) (*model.Journal, error) {
			id, err := d.me()
			if err != nil {
				return nil, err
			}
			j.User = &model.Person{ID: id}
			return d.API.CreateJournal(ctx, j)
		},
		// entries stay with their author whatever the edit carries
		Update: func(ctx context.Context, j model.Journal) (*model.Journal, error) {
			id, err := d.me()
			if err != nil {
				return nil, err
			}
			j.User = &model.Person{ID: id}
			return d.API.UpdateJournal(ctx, j)
		},
		Remove: d.API.DeleteJournal,
		Validate: func(j model.Journal, _ bool) error {
			return j.Validate()
		},
	}
	return &Journals{List: NewList(res, d.logger()), filter: FilterAll}
}

// SetFilter takes "all" or one of the moods.
func (j *Journals) SetFilter(f string) error {
	if f == "" {
		f = FilterAll
	}
	if f != FilterAll && !model.Mood(f).Valid() {
		return &model.ValidationError{Field: "mood", Message: fmt.Sprintf("unknown mood %q", f)}
	}
	j.mu.Lock()
	j.filter = f
	j.mu.Unlock()
	return nil
}

func (j *Journals) Filter() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.filter
}

// Filtered applies the current mood filter to the cached list.
func (j *Journals) Filtered() []model.Journal {
	f := j.Filter()
	items := j.Items()
	if f == FilterAll {
		return items
	}
	var out []model.Journal
	for _, it := range items {
		if string(it.Mood) == f {
			out = append(out, it)
		}
	}
	return out
}

// NewAdminJournals lists every journal for the admin management screen.
func NewAdminJournals(d Deps) *List[model.Journal] {
	return NewList(Resource[model.Journal]{
		Name:   "admin journals",
		Prompt: "Are you sure you want to delete this journal entry?",
		ID:     func(j model.Journal) int64 { return j.ID },
		Fetch:  d.API.Journals,
		Create: d.API.CreateJournal,
		// entries stay with their author whatever the edit carries
		Update: func(ctx context.Context, j model.Journal) (*model.Journal, error) {
			id, err := d.me()
			if err != nil {
				return nil, err
			}
			j.User = &model.Person{ID: id}
			return d.API.UpdateJournal(ctx, j)
		},
		Remove: d.API.DeleteJournal,
		Validate: func(j model.Journal, creating bool) error {
			if creating && (j.User == nil || j.User.ID == 0) {
				return &model.ValidationError{Field: "user", Message: "required"}
			}
			return j.Validate()
		},
	}, d.logger())
}
