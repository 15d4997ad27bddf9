package config

import "strings"

// StoreType enumerates supported document store backends.
type StoreType string

const (
	StoreForgejo StoreType = "forgejo"
	StoreGitHub  StoreType = "github"
	StoreLocal   StoreType = "local"
)

// NormalizeStoreType canonicalizes a store type string (case-insensitive) or
// returns empty if unknown.
func NormalizeStoreType(raw string) StoreType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StoreForgejo):
		return StoreForgejo
	case string(StoreGitHub):
		return StoreGitHub
	case string(StoreLocal):
		return StoreLocal
	default:
		return ""
	}
}
