// Package confloader loads layered configuration with koanf.
//
// Sources are applied lowest priority first:
//
//  1. Defaults (a flattened map, usually derived from the default config struct)
//  2. YAML file
//  3. Environment variables with the SNAPBACK_ prefix
//  4. Overrides (command-line flags)
//
// Environment keys are resolved against the keys already known from the
// defaults and the file, so SNAPBACK_STORAGE_BADGER_IN_MEMORY maps to
// storage.badger.in_memory rather than storage.badger.in.memory.
//
// Watcher reports writes to the configuration file so callers can reapply
// the settings that are safe to change at runtime.
package confloader
