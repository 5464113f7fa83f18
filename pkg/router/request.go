package router

import (
	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/metadata"
)

// Request is one CLI invocation's source/destination mapping plus the
// per-operation behavior flags. It is built once from parsed options
// and never mutated after validation begins.
type Request struct {
	Source      string
	Destination string
	Recursive   bool
	Interactive bool
	NoOverwrite bool

	// Suffix overrides the default output filename suffix when set.
	// nil means "use the mode default".
	Suffix *string

	DecodeInput  bool
	EncodeOutput bool

	Metadata metadata.Target
}

// Operation is one resolved unit of work handed to a dispatch target.
type Operation struct {
	Source      string
	Destination string
	Interactive bool
	NoOverwrite bool

	DecodeInput  bool
	EncodeOutput bool

	Metadata metadata.Target
}

// DirOperation is one directory walk handed to the directory runner.
type DirOperation struct {
	Operation

	Recursive bool
	Suffix    string
}

// Dispatcher is the set of runners the router fans out to. The router
// guarantees each resolved unit is dispatched exactly once and that no
// dispatch happens if any validator rejects the request.
type Dispatcher interface {
	SingleOperation(cfg engine.Config, op Operation) error
	SingleFile(cfg engine.Config, op Operation) error
	Dir(cfg engine.Config, op DirOperation) error
}
