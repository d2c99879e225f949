package domain

// Command is an external program invocation.
type Command struct {
	// Name is a short label used in logs and errors.
	Name string
	// Path is the resolved executable.
	Path string
	Args []string
	// Dir is the working directory. Empty means the current one.
	Dir string
	// Env holds additional KEY=VALUE pairs layered over the inherited environment.
	Env []string
}

// String returns the command line as it would be typed.
func (c *Command) String() string {
	s := c.Path
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}
