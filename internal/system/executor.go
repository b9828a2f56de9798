package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct{}

func (e *osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (e *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

func (e *osExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	return e.ExecuteAttached(ctx, nil, name, args...)
}

func (e *osExecutor) ExecuteAttached(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.Run()
}

// PipeError reports the individual outcomes of a producer/consumer pair.
// Either side failing fails the pipe.
type PipeError struct {
	Producer error
	Consumer error
}

func (e *PipeError) Error() string {
	switch {
	case e.Producer != nil && e.Consumer != nil:
		return fmt.Sprintf("producer: %v; consumer: %v", e.Producer, e.Consumer)
	case e.Consumer != nil:
		return fmt.Sprintf("consumer: %v", e.Consumer)
	default:
		return fmt.Sprintf("producer: %v", e.Producer)
	}
}

func (e *PipeError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Producer, e.Consumer} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (e *osExecutor) Pipe(ctx context.Context, producer, consumer Command) error {
	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create pipe: %w", err)
	}

	prod := exec.CommandContext(ctx, producer.Name, producer.Args...)
	prod.Dir = producer.Dir
	prod.Stdout = w
	prod.Stderr = os.Stderr

	cons := exec.CommandContext(ctx, consumer.Name, consumer.Args...)
	cons.Dir = consumer.Dir
	cons.Stdin = r
	cons.Stdout = os.Stdout
	cons.Stderr = os.Stderr

	if err := cons.Start(); err != nil {
		r.Close()
		w.Close()
		return &PipeError{Consumer: err}
	}
	if err := prod.Start(); err != nil {
		// Closing both ends lets the consumer see EOF and exit.
		r.Close()
		w.Close()
		return &PipeError{Producer: err, Consumer: cons.Wait()}
	}

	// The children hold their own copies of the descriptors.
	r.Close()
	w.Close()

	prodErr := prod.Wait()
	consErr := cons.Wait()
	if prodErr != nil || consErr != nil {
		return &PipeError{Producer: prodErr, Consumer: consErr}
	}
	return nil
}

// ExitCode extracts a process exit status from err. ok is false when err
// does not carry one (for example when the binary could not be started).
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		code = coded.ExitCode()
		if code < 0 {
			// Killed by a signal.
			return 1, true
		}
		return code, true
	}
	return 0, false
}
