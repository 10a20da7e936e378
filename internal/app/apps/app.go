// Package apps wires configuration into runnable role instances.
package apps

import "context"

// App is a runnable role instance: it runs until its configured duration
// elapses or the context is cancelled.
type App interface {
	Run(ctx context.Context, args []string) error
}
