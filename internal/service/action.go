package service

// Action is one of the fixed operations the router can dispatch to
type Action int

const (
	ActionInfo Action = iota + 1
	ActionAuth
	ActionGetMedia
	ActionEntriesByFolder
	ActionGetEntry
	ActionPersistEntry
	ActionDeleteEntry
	ActionGetContents
)

var actionNames = map[Action]string{
	ActionInfo:            "info",
	ActionAuth:            "auth",
	ActionGetMedia:        "getMedia",
	ActionEntriesByFolder: "entriesByFolder",
	ActionGetEntry:        "getEntry",
	ActionPersistEntry:    "persistEntry",
	ActionDeleteEntry:     "deleteEntry",
	ActionGetContents:     "getContents",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, name := range actionNames {
		m[name] = a
	}
	return m
}()

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction resolves an action name as sent in the POST envelope.
// getContents is reachable only through the contents route
func ParseAction(name string) (Action, bool) {
	a, ok := actionsByName[name]
	if !ok || a == ActionGetContents {
		return 0, false
	}
	return a, true
}

// Cacheable reports whether a successful response may be served from cache
func (a Action) Cacheable() bool {
	switch a {
	case ActionInfo, ActionGetMedia, ActionEntriesByFolder, ActionGetEntry, ActionGetContents:
		return true
	}
	return false
}

// Mutating reports whether the action changes stored content
func (a Action) Mutating() bool {
	return a == ActionPersistEntry || a == ActionDeleteEntry
}
