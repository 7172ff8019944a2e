// Package setup holds the launcher's host-level concerns: the settings file,
// the on-disk layout under the base directory, and the prerequisite checks
// (root privilege, container engine on PATH) run before any privileged mode.
//
// Like the rest of the launcher's startup code it may log through a package
// logger configured with SetLogger.
package setup
