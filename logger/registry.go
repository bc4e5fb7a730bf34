package logger

import "sync"

var named sync.Map // string -> *Logger

// Register makes l the logger Get returns for name.
func Register(name string, l *Logger) { named.Store(name, l) }

// Unregister drops the logger registered for name.
func Unregister(name string) { named.Delete(name) }

// Get returns the logger registered for name, or the default logger tagged
// with name as its component.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return WithComponent(name)
}

// RegisterDefaults registers a component logger derived from the current
// default for each name. Call it after Init.
func RegisterDefaults(names ...string) {
	for _, name := range names {
		Register(name, WithComponent(name))
	}
}
