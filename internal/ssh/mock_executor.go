package ssh

// MockExecutor is a test double that records commands and returns configured results.
type MockExecutor struct {
	ExecFunc       func(command string) (*ExecResult, error)
	SyncFunc       func(localDir, remoteDir string) error
	UploadFunc     func(content, remotePath string) error
	UploadFileFunc func(localPath, remotePath string) error

	Commands    []string
	Syncs       [][2]string
	Uploads     map[string]string
	FileUploads [][2]string
}

// Exec records the command and delegates to ExecFunc.
func (m *MockExecutor) Exec(command string) (*ExecResult, error) {
	m.Commands = append(m.Commands, command)
	if m.ExecFunc != nil {
		return m.ExecFunc(command)
	}
	return &ExecResult{Stdout: "", Stderr: "", ExitCode: 0}, nil
}

// Sync records the transfer and delegates to SyncFunc.
func (m *MockExecutor) Sync(localDir, remoteDir string) error {
	m.Syncs = append(m.Syncs, [2]string{localDir, remoteDir})
	if m.SyncFunc != nil {
		return m.SyncFunc(localDir, remoteDir)
	}
	return nil
}

// UploadContent records the upload and delegates to UploadFunc.
func (m *MockExecutor) UploadContent(content, remotePath string) error {
	if m.Uploads == nil {
		m.Uploads = make(map[string]string)
	}
	m.Uploads[remotePath] = content
	if m.UploadFunc != nil {
		return m.UploadFunc(content, remotePath)
	}
	return nil
}

// UploadFile records the file transfer and delegates to UploadFileFunc.
func (m *MockExecutor) UploadFile(localPath, remotePath string) error {
	m.FileUploads = append(m.FileUploads, [2]string{localPath, remotePath})
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(localPath, remotePath)
	}
	return nil
}

// Close is a no-op for the mock.
func (m *MockExecutor) Close() error {
	return nil
}
