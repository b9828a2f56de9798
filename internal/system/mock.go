package system

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MockFS implements FileSystem for testing.
type MockFS struct {
	mu       sync.RWMutex
	files    map[string]*mockFile
	dirs     map[string]bool
	symlinks map[string]string
	mounts   map[string]bool

	// Error injection
	ReadFileErr  error
	WriteFileErr error
	RemoveErr    error
	RemoveAllErr error
	StatErr      error
	MkdirAllErr  error
	ReadDirErr   error
	CopyFileErr  error
	SymlinkErr   error
	RenameErr    error
	WriteAtErr   error
}

type mockFile struct {
	data []byte
	mode fs.FileMode
}

// NewMockFS creates a new MockFS with an empty filesystem.
func NewMockFS() *MockFS {
	return &MockFS{
		files:    make(map[string]*mockFile),
		dirs:     make(map[string]bool),
		symlinks: make(map[string]string),
		mounts:   make(map[string]bool),
	}
}

// SetMountPoint marks path as a mount point, or clears the mark.
func (m *MockFS) SetMountPoint(path string, mounted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mounted {
		m.mounts[filepath.Clean(path)] = true
	} else {
		delete(m.mounts, filepath.Clean(path))
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFS) AddFile(path string, data []byte, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &mockFile{data: data, mode: mode}
	m.addParentsLocked(path)
}

// AddDir adds a directory to the mock filesystem.
func (m *MockFS) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	m.addParentsLocked(path)
}

func (m *MockFS) addParentsLocked(path string) {
	dir := filepath.Dir(path)
	for dir != "." && dir != "/" {
		m.dirs[dir] = true
		dir = filepath.Dir(dir)
	}
}

// GetFile returns the contents of a file in the mock filesystem.
func (m *MockFS) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[m.resolveLocked(path)]
	if !ok {
		return nil, false
	}
	return f.data, true
}

// resolveLocked follows symlinks in every component of path.
func (m *MockFS) resolveLocked(path string) string {
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		return m.followLocked(path)
	}
	cur := "/"
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if part == "" {
			continue
		}
		cur = m.followLocked(filepath.Join(cur, part))
	}
	return cur
}

func (m *MockFS) followLocked(path string) string {
	for i := 0; i < 16; i++ {
		target, ok := m.symlinks[path]
		if !ok {
			return path
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return path
}

func (m *MockFS) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[m.resolveLocked(path)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return f.data, nil
}

func (m *MockFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	if m.WriteFileErr != nil {
		return m.WriteFileErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved := m.resolveLocked(path)
	m.files[resolved] = &mockFile{data: data, mode: perm}
	m.addParentsLocked(resolved)
	return nil
}

func (m *MockFS) Remove(path string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.symlinks[path]; ok {
		delete(m.symlinks, path)
		return nil
	}
	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		return nil
	}
	if _, ok := m.dirs[path]; ok {
		delete(m.dirs, path)
		return nil
	}
	return fs.ErrNotExist
}

func (m *MockFS) RemoveAll(path string) error {
	if m.RemoveAllErr != nil {
		return m.RemoveAllErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := range m.files {
		if p == path || hasPathPrefix(p, path) {
			delete(m.files, p)
		}
	}
	for p := range m.dirs {
		if p == path || hasPathPrefix(p, path) {
			delete(m.dirs, p)
		}
	}
	for p := range m.symlinks {
		if p == path || hasPathPrefix(p, path) {
			delete(m.symlinks, p)
		}
	}
	return nil
}

func (m *MockFS) statLocked(path string) (fs.FileInfo, error) {
	if f, ok := m.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(f.data)), mode: f.mode}, nil
	}
	if _, ok := m.dirs[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | 0755}, nil
	}
	return nil, fs.ErrNotExist
}

func (m *MockFS) Stat(path string) (fs.FileInfo, error) {
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statLocked(m.resolveLocked(path))
}

func (m *MockFS) Lstat(path string) (fs.FileInfo, error) {
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.symlinks[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), mode: fs.ModeSymlink | 0777}, nil
	}
	return m.statLocked(path)
}

func (m *MockFS) MkdirAll(path string, perm fs.FileMode) error {
	if m.MkdirAllErr != nil {
		return m.MkdirAllErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := path
	for current != "." && current != "/" {
		m.dirs[current] = true
		current = filepath.Dir(current)
	}
	return nil
}

func (m *MockFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resolved := m.resolveLocked(path)
	_, fileOk := m.files[resolved]
	_, dirOk := m.dirs[resolved]
	return fileOk || dirOk
}

func (m *MockFS) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[m.resolveLocked(path)]
	return ok
}

func (m *MockFS) ReadDir(path string) ([]fs.DirEntry, error) {
	if m.ReadDirErr != nil {
		return nil, m.ReadDirErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = m.resolveLocked(path)
	if _, ok := m.dirs[path]; !ok {
		return nil, fs.ErrNotExist
	}

	entries := make(map[string]fs.DirEntry)

	for p, f := range m.files {
		if filepath.Dir(p) == path {
			name := filepath.Base(p)
			entries[name] = &mockDirEntry{name: name, mode: f.mode}
		}
	}
	for p := range m.dirs {
		if filepath.Dir(p) == path {
			name := filepath.Base(p)
			entries[name] = &mockDirEntry{name: name, isDir: true, mode: fs.ModeDir | 0755}
		}
	}
	for p := range m.symlinks {
		if filepath.Dir(p) == path {
			name := filepath.Base(p)
			entries[name] = &mockDirEntry{name: name, mode: fs.ModeSymlink | 0777}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}

func (m *MockFS) CopyFile(src, dst string) error {
	if m.CopyFileErr != nil {
		return m.CopyFileErr
	}
	data, err := m.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := m.Stat(src)
	if err != nil {
		return err
	}
	return m.WriteFile(dst, data, info.Mode())
}

func (m *MockFS) Symlink(oldname, newname string) error {
	if m.SymlinkErr != nil {
		return m.SymlinkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, isLink := m.symlinks[newname]
	_, isFile := m.files[newname]
	_, isDir := m.dirs[newname]
	if isLink || isFile || isDir {
		return fs.ErrExist
	}
	m.symlinks[newname] = oldname
	return nil
}

func (m *MockFS) Readlink(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	target, ok := m.symlinks[path]
	if !ok {
		return "", fs.ErrInvalid
	}
	return target, nil
}

// Rename supports files and symlinks, which is all the callers move.
func (m *MockFS) Rename(oldpath, newpath string) error {
	if m.RenameErr != nil {
		return m.RenameErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if target, ok := m.symlinks[oldpath]; ok {
		delete(m.symlinks, oldpath)
		delete(m.files, newpath)
		m.symlinks[newpath] = target
		return nil
	}
	if f, ok := m.files[oldpath]; ok {
		delete(m.files, oldpath)
		delete(m.symlinks, newpath)
		m.files[newpath] = f
		return nil
	}
	return fs.ErrNotExist
}

func (m *MockFS) ReadHeader(path string, n int) ([]byte, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > n {
		data = data[:n]
	}
	return append([]byte(nil), data...), nil
}

// WriteAt grows the file when data ends past its current size.
func (m *MockFS) WriteAt(path string, data []byte, off int64) error {
	if m.WriteAtErr != nil {
		return m.WriteAtErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[m.resolveLocked(path)]
	if !ok {
		return fs.ErrNotExist
	}
	end := int(off) + len(data)
	buf := make([]byte, max(len(f.data), end))
	copy(buf, f.data)
	copy(buf[off:], data)
	f.data = buf
	return nil
}

// IsMountPoint reports the marks set with SetMountPoint.
func (m *MockFS) IsMountPoint(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	if _, err := m.statLocked(path); err != nil {
		if _, ok := m.symlinks[path]; !ok {
			return false, err
		}
	}
	return m.mounts[path], nil
}

// hasPathPrefix checks if path has the given prefix as a path component.
func hasPathPrefix(path, prefix string) bool {
	if len(path) <= len(prefix) {
		return false
	}
	return path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}

// mockFileInfo implements fs.FileInfo for testing.
type mockFileInfo struct {
	name  string
	size  int64
	mode  fs.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Now() }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// mockDirEntry implements fs.DirEntry for testing.
type mockDirEntry struct {
	name  string
	mode  fs.FileMode
	isDir bool
}

func (m *mockDirEntry) Name() string      { return m.name }
func (m *mockDirEntry) IsDir() bool       { return m.isDir }
func (m *mockDirEntry) Type() fs.FileMode { return m.mode.Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) {
	return &mockFileInfo{name: m.name, mode: m.mode, isDir: m.isDir}, nil
}

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands, in order, for verification.
	// A Pipe records its producer and then its consumer.
	Commands []MockCommand

	// Responses maps command patterns to responses.
	// Key format: "command arg1" or "command".
	Responses map[string]MockResponse

	// Handler, when set, is consulted before Responses. Returning false
	// falls through to the pattern lookup.
	Handler func(cmd MockCommand) (MockResponse, bool)

	// OnPipe, when set, runs in place of a real pipe.
	OnPipe func(producer, consumer Command) error

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// InteractiveErr is returned by ExecuteInteractive and ExecuteAttached if set.
	InteractiveErr error
}

// MockCommand records an executed command.
type MockCommand struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command the way it would be typed.
func (c MockCommand) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Output []byte
	Err    error
}

// MockExitError is an error carrying a process exit status.
type MockExitError struct {
	Code int
}

func (e *MockExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitCode returns the simulated exit status.
func (e *MockExitError) ExitCode() int { return e.Code }

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse adds a response for a specific command pattern.
func (m *MockExecutor) AddResponse(pattern string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{Output: output, Err: err}
}

// record appends cmd and returns its configured response. Callers hold mu.
func (m *MockExecutor) record(cmd MockCommand) MockResponse {
	m.Commands = append(m.Commands, cmd)

	if m.Handler != nil {
		if resp, ok := m.Handler(cmd); ok {
			return resp
		}
	}

	key := cmd.Name
	if len(cmd.Args) > 0 {
		key = cmd.Name + " " + cmd.Args[0]
	}

	if resp, ok := m.Responses[key]; ok {
		return resp
	}
	if resp, ok := m.Responses[cmd.Name]; ok {
		return resp
	}

	return m.DefaultResponse
}

func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := m.record(MockCommand{Name: name, Args: args})
	return resp.Output, resp.Err
}

func (m *MockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.Execute(ctx, name, args...)
}

func (m *MockExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	return m.ExecuteAttached(ctx, nil, name, args...)
}

func (m *MockExecutor) ExecuteAttached(ctx context.Context, env []string, name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp := m.record(MockCommand{Name: name, Args: args, Env: env})
	if m.InteractiveErr != nil {
		return m.InteractiveErr
	}
	return resp.Err
}

func (m *MockExecutor) Pipe(ctx context.Context, producer, consumer Command) error {
	m.mu.Lock()
	prodResp := m.record(MockCommand{Name: producer.Name, Args: producer.Args, Dir: producer.Dir})
	consResp := m.record(MockCommand{Name: consumer.Name, Args: consumer.Args, Dir: consumer.Dir})
	onPipe := m.OnPipe
	m.mu.Unlock()

	if prodResp.Err != nil || consResp.Err != nil {
		return &PipeError{Producer: prodResp.Err, Consumer: consResp.Err}
	}
	if onPipe != nil {
		return onPipe(producer, consumer)
	}
	return nil
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// CommandsNamed returns the recorded commands whose name matches.
func (m *MockExecutor) CommandsNamed(name string) []MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCommand
	for _, c := range m.Commands {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
}
