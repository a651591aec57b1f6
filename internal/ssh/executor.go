package ssh

// Executor abstracts remote command execution for testability.
type Executor interface {
	Exec(command string) (*ExecResult, error)
	Close() error
}
