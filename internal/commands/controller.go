// Package commands contains the CLI commands for the application
package commands

import "context"

type Flags struct {
	LogLevel string
	Config   string
}

type Controller struct {
	Flags *Flags
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand()
	return cmd.Run(ctx)
}

func (c *Controller) Serve(ctx context.Context) error {
	return c.serve(ctx)
}

func (c *Controller) Validate(ctx context.Context) error {
	return c.validate(ctx)
}
