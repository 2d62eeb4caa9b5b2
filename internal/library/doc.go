// Package library holds the in-memory state of a user's library and the
// reducer that mutates it.
//
// # Flow
//
// Every change is an Action dispatched through a Store:
//
//	store := library.NewStore(library.NewState())
//	store.Dispatch(library.AddSaga{Saga: entities.Saga{Name: "Mistborn"}})
//	store.Dispatch(library.AddBook{Book: entities.Book{Title: "The Final Empire", SagaName: "Mistborn"}})
//	store.Dispatch(library.ChangeBookState{ID: id, NewState: entities.BookStatusRead})
//
// Apply is pure. After each action it recomputes saga counts and
// completion from the books, and after actions that can unlink books it
// drops sagas nobody references anymore. Status changes always go through
// AppendHistory, so a book's StatusHistory only ever grows.
//
// # Wire format
//
// At the HTTP and CLI edges actions travel as {"type": "ADD_BOOK",
// "payload": {...}} envelopes, see DecodeAction.
package library
