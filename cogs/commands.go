package cogs

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ccasino/utils"
)

// Handler runs one chat command
type Handler func(ctx context.Context, sender utils.Sender, args []string) error

// CommandRegistry maps command words to handlers. Tables add and remove
// their own bindings when they go live or are switched out.
type CommandRegistry struct {
	mutex    sync.RWMutex
	handlers map[string]Handler
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		handlers: make(map[string]Handler),
	}
}

// Register binds name to h, replacing any previous binding
func (r *CommandRegistry) Register(name string, h Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.handlers[strings.ToLower(name)] = h
}

// Unregister drops the binding for name
func (r *CommandRegistry) Unregister(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.handlers, strings.ToLower(name))
}

// Lookup finds the handler for name
func (r *CommandRegistry) Lookup(name string) (Handler, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	h, ok := r.handlers[strings.ToLower(name)]
	return h, ok
}

// Names lists the registered commands alphabetically
func (r *CommandRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseCommand splits a chat line into the command word and its arguments
func ParseCommand(line string) (string, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// Roster remembers the members seen in the room so commands can address
// them by name or member number.
type Roster struct {
	mutex   sync.RWMutex
	members map[int64]utils.Sender
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{
		members: make(map[int64]utils.Sender),
	}
}

// Seen records or refreshes a member
func (r *Roster) Seen(s utils.Sender) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.members[s.ID] = s
}

// Find resolves a member number, a mention, or a case-insensitive name
func (r *Roster) Find(query string) (utils.Sender, bool) {
	query = strings.TrimSpace(query)
	query = strings.TrimSuffix(strings.TrimPrefix(query, "<@"), ">")
	query = strings.TrimPrefix(query, "!")
	query = strings.TrimPrefix(query, "#")

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if ids, err := utils.ParseIDList(query); err == nil && len(ids) == 1 {
		if s, ok := r.members[ids[0]]; ok {
			return s, true
		}
	}
	for _, s := range r.members {
		if strings.EqualFold(s.Name, query) {
			return s, true
		}
	}
	return utils.Sender{}, false
}
