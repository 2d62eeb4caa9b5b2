package library

import (
	"slices"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// RecomputeSagas derives every saga's Count and IsComplete from the books
// and refreshes the SagaName cache on books. It is idempotent.
func RecomputeSagas(s State) State {
	type tally struct {
		count  int
		unread bool
	}
	tallies := make(map[int64]*tally, len(s.Sagas))
	names := make(map[int64]string, len(s.Sagas))
	for _, sg := range s.Sagas {
		tallies[sg.ID] = &tally{}
		names[sg.ID] = sg.Name
	}

	books := s.Books
	copied := false
	for i, b := range s.Books {
		want := b.SagaName
		if b.SagaID == nil {
			want = ""
		} else if t, ok := tallies[*b.SagaID]; ok {
			t.count++
			if b.Status != entities.BookStatusRead {
				t.unread = true
			}
			want = names[*b.SagaID]
		}

		if want != b.SagaName {
			if !copied {
				books = slices.Clone(s.Books)
				copied = true
			}
			books[i].SagaName = want
		}
	}

	sagas := slices.Clone(s.Sagas)
	for i := range sagas {
		t := tallies[sagas[i].ID]
		sagas[i].Count = t.count
		sagas[i].IsComplete = t.count > 0 && !t.unread
	}

	s.Books = books
	s.Sagas = sagas
	return s
}

// PruneOrphanSagas removes sagas no book points at.
func PruneOrphanSagas(s State) State {
	referenced := make(map[int64]bool, len(s.Sagas))
	for _, b := range s.Books {
		if b.SagaID != nil {
			referenced[*b.SagaID] = true
		}
	}

	if !slices.ContainsFunc(s.Sagas, func(sg entities.Saga) bool { return !referenced[sg.ID] }) {
		return s
	}
	s.Sagas = slices.DeleteFunc(slices.Clone(s.Sagas), func(sg entities.Saga) bool {
		return !referenced[sg.ID]
	})
	return s
}

// SagaByName finds a saga by its exact, case-sensitive name.
func SagaByName(s State, name string) (entities.Saga, bool) {
	i := slices.IndexFunc(s.Sagas, func(sg entities.Saga) bool { return sg.Name == name })
	if i < 0 {
		return entities.Saga{}, false
	}
	return s.Sagas[i], true
}

func nextSagaID(s State) int64 {
	var highest int64
	for _, sg := range s.Sagas {
		highest = max(highest, sg.ID)
	}
	return highest + 1
}
