package app

import "github.com/nhle/ghnotify/internal/keys"

// KeyMap is the application key map.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
