package api

import (
	"github.com/JaimeStill/pdfdesk/internal/operations"
	"github.com/JaimeStill/pdfdesk/internal/tools"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/routes"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Operations operations.System
	Workspaces workspaces.System
	Tools      tools.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	opsSystem := operations.New(
		runtime.Database,
		runtime.Logger,
		runtime.Pagination,
	)

	wsSystem := workspaces.New(
		runtime.Workspaces,
		runtime.Storage,
		runtime.Service,
		runtime.Previews,
		runtime.HTTP,
		runtime.Logger,
	)

	toolsSystem := tools.New(&tools.Runtime{
		Backend:    runtime.Service,
		Workspaces: wsSystem,
		Storage:    runtime.Storage,
		Operations: opsSystem,
		Logger:     runtime.Logger,
	})

	return &Domain{
		Operations: opsSystem,
		Workspaces: wsSystem,
		Tools:      toolsSystem,
	}
}

// Groups returns the route groups of every domain handler.
func (d *Domain) Groups() []routes.Group {
	return []routes.Group{
		d.Workspaces.Handler().Routes(),
		d.Tools.Handler().Routes(),
		d.Operations.Handler().Routes(),
	}
}
