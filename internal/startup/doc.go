// Package startup handles application initialization: environment
// configuration, directory setup, capability checks, and the structured
// startup and shutdown log output.
package startup
