package middleware

import "github.com/aretw0/catena/pkg/ports"

// Middleware allows wrapping a NoteStore to add behavior.
type Middleware func(ports.NoteStore) ports.NoteStore

// Wrap applies middlewares to store. The first middleware is the outermost.
func Wrap(store ports.NoteStore, mws ...Middleware) ports.NoteStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
