package main

import (
	"fmt"
	"sort"
	"strings"
)

// CommandHandler runs one subcommand with the arguments that follow its name.
type CommandHandler func(args []string) error

// Router holds the mapping of subcommand names to their handlers.
type Router struct {
	handlers map[string]CommandHandler
}

// NewRouter creates a new, empty router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]CommandHandler),
	}
}

// Handle registers a new subcommand handler.
func (r *Router) Handle(name string, handler CommandHandler) {
	r.handlers[strings.ToLower(name)] = handler
}

// Names returns the registered subcommands joined by "|", sorted.
func (r *Router) Names() string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// Dispatch finds the handler for parts[0] and executes it with the rest.
func (r *Router) Dispatch(parts []string) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	name := strings.ToLower(parts[0])
	handler, found := r.handlers[name]
	if !found {
		return fmt.Errorf("%w: unknown command '%s'", errUsage, parts[0])
	}

	return handler(parts[1:])
}

// commands creates the router and registers every subcommand. This is the
// single source of truth for what the tool supports.
func (app *application) commands() *Router {
	router := NewRouter()

	router.Handle("build", app.handleBuild)
	router.Handle("check", app.handleCheck)
	router.Handle("inspect", app.handleInspect)

	return router
}
