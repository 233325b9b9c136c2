// Package runtime provides the execution context for changelog commands.
//
// It encapsulates shared dependencies and configuration needed by actions,
// such as the loaded configuration, rule lists, logger and HTTP client.
package runtime
