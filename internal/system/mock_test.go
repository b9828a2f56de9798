package system

import (
	"context"
	"errors"
	"io/fs"
	"testing"
)

func TestMockFS_ReadWriteFile(t *testing.T) {
	mockFS := NewMockFS()

	// Write a file
	content := []byte("hello world")
	err := mockFS.WriteFile("/test/file.txt", content, 0644)
	if err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	// Read it back
	data, err := mockFS.ReadFile("/test/file.txt")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}

	if string(data) != "hello world" {
		t.Errorf("ReadFile = %q, want %q", string(data), "hello world")
	}
}

func TestMockFS_ReadFile_NotExists(t *testing.T) {
	mockFS := NewMockFS()

	_, err := mockFS.ReadFile("/nonexistent")
	if err != fs.ErrNotExist {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
}

func TestMockFS_Stat(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/test/file.txt", []byte("content"), 0644)
	mockFS.AddDir("/test/dir")

	// Stat file
	info, err := mockFS.Stat("/test/file.txt")
	if err != nil {
		t.Fatalf("Stat file error: %v", err)
	}
	if info.IsDir() {
		t.Error("File should not be a directory")
	}
	if info.Name() != "file.txt" {
		t.Errorf("Name = %q, want %q", info.Name(), "file.txt")
	}

	// Stat directory
	info, err = mockFS.Stat("/test/dir")
	if err != nil {
		t.Fatalf("Stat dir error: %v", err)
	}
	if !info.IsDir() {
		t.Error("Dir should be a directory")
	}
}

func TestMockFS_Exists(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/file.txt", []byte("x"), 0644)
	mockFS.AddDir("/dir")

	if !mockFS.Exists("/file.txt") {
		t.Error("File should exist")
	}
	if !mockFS.Exists("/dir") {
		t.Error("Dir should exist")
	}
	if mockFS.Exists("/nonexistent") {
		t.Error("Nonexistent should not exist")
	}
}

func TestMockFS_RemoveAll(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/dir/file1.txt", []byte("x"), 0644)
	mockFS.AddFile("/dir/file2.txt", []byte("y"), 0644)
	mockFS.AddDir("/dir/subdir")

	if err := mockFS.RemoveAll("/dir"); err != nil {
		t.Fatalf("RemoveAll error: %v", err)
	}

	if mockFS.Exists("/dir/file1.txt") {
		t.Error("File1 should be removed")
	}
	if mockFS.Exists("/dir/file2.txt") {
		t.Error("File2 should be removed")
	}
}

func TestMockFS_MkdirAll(t *testing.T) {
	mockFS := NewMockFS()

	if err := mockFS.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}

	if !mockFS.IsDir("/a") {
		t.Error("/a should be a directory")
	}
	if !mockFS.IsDir("/a/b") {
		t.Error("/a/b should be a directory")
	}
	if !mockFS.IsDir("/a/b/c") {
		t.Error("/a/b/c should be a directory")
	}
}

func TestMockFS_CopyFile(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/src.txt", []byte("content"), 0644)

	if err := mockFS.CopyFile("/src.txt", "/dst.txt"); err != nil {
		t.Fatalf("CopyFile error: %v", err)
	}

	data, err := mockFS.ReadFile("/dst.txt")
	if err != nil {
		t.Fatalf("ReadFile dst error: %v", err)
	}

	if string(data) != "content" {
		t.Errorf("Dst content = %q, want %q", string(data), "content")
	}
}

func TestMockFS_HeaderReadWrite(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/bin/app", []byte("\x7fELF\x02\x01\x01\x09"), 0755)

	if err := mockFS.WriteAt("/bin/app", []byte{0x03}, 7); err != nil {
		t.Fatalf("WriteAt error: %v", err)
	}
	head, err := mockFS.ReadHeader("/bin/app", 4)
	if err != nil || string(head) != "\x7fELF" {
		t.Errorf("ReadHeader(4) = %q, %v", head, err)
	}
	data, _ := mockFS.GetFile("/bin/app")
	if data[7] != 0x03 || len(data) != 8 {
		t.Errorf("data = %q", data)
	}

	if err := mockFS.WriteAt("/bin/app", []byte("xy"), 10); err != nil {
		t.Fatalf("WriteAt past the end error: %v", err)
	}
	if data, _ := mockFS.GetFile("/bin/app"); len(data) != 12 || string(data[10:]) != "xy" {
		t.Errorf("data = %q", data)
	}

	if err := mockFS.WriteAt("/missing", []byte{0}, 0); err != fs.ErrNotExist {
		t.Errorf("WriteAt on a missing file = %v", err)
	}
	mockFS.WriteAtErr = fs.ErrPermission
	if err := mockFS.WriteAt("/bin/app", []byte{0}, 0); err != fs.ErrPermission {
		t.Errorf("WriteAt error = %v, want ErrPermission", err)
	}
}

func TestMockFS_IsMountPoint(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddDir("/mnt/root")

	if mounted, err := mockFS.IsMountPoint("/mnt/root"); err != nil || mounted {
		t.Errorf("IsMountPoint = %v, %v; want false", mounted, err)
	}
	mockFS.SetMountPoint("/mnt/root/", true)
	if mounted, err := mockFS.IsMountPoint("/mnt/root"); err != nil || !mounted {
		t.Errorf("IsMountPoint = %v, %v; want true", mounted, err)
	}
	mockFS.SetMountPoint("/mnt/root", false)
	if mounted, _ := mockFS.IsMountPoint("/mnt/root"); mounted {
		t.Error("cleared mount point still reported")
	}
	if _, err := mockFS.IsMountPoint("/mnt/missing"); err != fs.ErrNotExist {
		t.Errorf("IsMountPoint on a missing path = %v", err)
	}
}

func TestMockFS_ErrorInjection(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.ReadFileErr = fs.ErrPermission

	_, err := mockFS.ReadFile("/anything")
	if err != fs.ErrPermission {
		t.Errorf("ReadFile error = %v, want ErrPermission", err)
	}
}

func TestMockExecutor_Execute(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("echo", []byte("hello\n"), nil)

	output, err := exec.Execute(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if string(output) != "hello\n" {
		t.Errorf("Output = %q, want %q", string(output), "hello\n")
	}

	// Verify command was recorded
	cmd, ok := exec.LastCommand()
	if !ok {
		t.Fatal("No command recorded")
	}
	if cmd.Name != "echo" {
		t.Errorf("Command name = %q, want %q", cmd.Name, "echo")
	}
}

func TestMockExecutor_DefaultResponse(t *testing.T) {
	exec := NewMockExecutor()
	exec.DefaultResponse = MockResponse{Output: []byte("default"), Err: nil}

	output, err := exec.Execute(context.Background(), "unknown", "command")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if string(output) != "default" {
		t.Errorf("Output = %q, want %q", string(output), "default")
	}
}

func TestMockExecutor_Reset(t *testing.T) {
	exec := NewMockExecutor()
	_, _ = exec.Execute(context.Background(), "cmd1")
	_, _ = exec.Execute(context.Background(), "cmd2")

	if len(exec.Commands) != 2 {
		t.Errorf("Commands length = %d, want 2", len(exec.Commands))
	}

	exec.Reset()

	if len(exec.Commands) != 0 {
		t.Errorf("Commands length after reset = %d, want 0", len(exec.Commands))
	}
}

func TestMockFS_SymlinkAndRename(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddFile("/inst/abc123/metadata", []byte("[Application]"), 0644)

	if err := mockFS.Symlink("abc123", "/inst/active.tmp"); err != nil {
		t.Fatalf("Symlink error: %v", err)
	}
	if err := mockFS.Rename("/inst/active.tmp", "/inst/active"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}

	target, err := mockFS.Readlink("/inst/active")
	if err != nil {
		t.Fatalf("Readlink error: %v", err)
	}
	if target != "abc123" {
		t.Errorf("Readlink = %q, want %q", target, "abc123")
	}
	if !mockFS.IsDir("/inst/active") {
		t.Error("active should resolve to the commit directory")
	}
	if _, err := mockFS.Readlink("/inst/active.tmp"); err == nil {
		t.Error("temporary link should be gone after rename")
	}

	info, err := mockFS.Lstat("/inst/active")
	if err != nil {
		t.Fatalf("Lstat error: %v", err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		t.Error("Lstat should report a symlink")
	}
}

func TestMockFS_SymlinkExists(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddDir("/root/usr/lib")

	if err := mockFS.Symlink("../lib", "/root/usr/lib"); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Symlink over existing dir error = %v, want ErrExist", err)
	}
}

func TestIsEmptyDir(t *testing.T) {
	mockFS := NewMockFS()
	mockFS.AddDir("/empty")
	mockFS.AddFile("/full/file", []byte("x"), 0644)

	if !IsEmptyDir(mockFS, "/empty") {
		t.Error("/empty should be empty")
	}
	if IsEmptyDir(mockFS, "/full") {
		t.Error("/full should not be empty")
	}
	if IsEmptyDir(mockFS, "/missing") {
		t.Error("missing path is not an empty dir")
	}
}

func TestMockExecutor_Handler(t *testing.T) {
	exec := NewMockExecutor()
	exec.Handler = func(cmd MockCommand) (MockResponse, bool) {
		if cmd.Name == "mount" && len(cmd.Args) > 1 && cmd.Args[1] == "devfs" {
			return MockResponse{Err: errors.New("devfs unavailable")}, true
		}
		return MockResponse{}, false
	}

	if _, err := exec.Execute(context.Background(), "mount", "-t", "tmpfs", "tmpfs", "/mnt/x"); err != nil {
		t.Errorf("tmpfs mount should fall through to default, got %v", err)
	}
	if _, err := exec.Execute(context.Background(), "mount", "-t", "devfs", "devfs", "/mnt/x/dev"); err == nil {
		t.Error("devfs mount should fail via handler")
	}

	if got := len(exec.CommandsNamed("mount")); got != 2 {
		t.Errorf("CommandsNamed(mount) = %d, want 2", got)
	}
}

func TestMockExecutor_Pipe(t *testing.T) {
	exec := NewMockExecutor()
	var called bool
	exec.OnPipe = func(producer, consumer Command) error {
		called = true
		if producer.Dir != "/src" || consumer.Dir != "/dst" {
			t.Errorf("unexpected dirs %q -> %q", producer.Dir, consumer.Dir)
		}
		return nil
	}

	err := exec.Pipe(context.Background(),
		Command{Name: "tar", Args: []string{"-cf", "-", "."}, Dir: "/src"},
		Command{Name: "tar", Args: []string{"-xf", "-"}, Dir: "/dst"})
	if err != nil {
		t.Fatalf("Pipe error: %v", err)
	}
	if !called {
		t.Error("OnPipe should be invoked")
	}
	if len(exec.Commands) != 2 {
		t.Fatalf("Pipe should record producer and consumer, got %d commands", len(exec.Commands))
	}
	if exec.Commands[0].String() != "tar -cf - ." {
		t.Errorf("producer = %q", exec.Commands[0].String())
	}
}

func TestMockExecutor_PipeConsumerFailure(t *testing.T) {
	exec := NewMockExecutor()
	exec.AddResponse("tar -xf", nil, &MockExitError{Code: 2})

	err := exec.Pipe(context.Background(),
		Command{Name: "tar", Args: []string{"-cf", "-", "."}},
		Command{Name: "tar", Args: []string{"-xf", "-"}})

	var pipeErr *PipeError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected *PipeError, got %v", err)
	}
	if pipeErr.Producer != nil {
		t.Errorf("producer should have succeeded, got %v", pipeErr.Producer)
	}
	if code, ok := ExitCode(pipeErr.Consumer); !ok || code != 2 {
		t.Errorf("consumer exit = %d (%v), want 2", code, ok)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, true},
		{"exit error", &MockExitError{Code: 7}, 7, true},
		{"signal", &MockExitError{Code: -1}, 1, true},
		{"no status", errors.New("exec: not found"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExitCode(tt.err)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ExitCode() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
