//go:build unix

package runtime

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// IsPID1 reports whether this process runs as the init process.
func IsPID1() bool {
	return os.Getpid() == 1
}

// StartReaper reaps terminated child processes on SIGCHLD so zombies do
// not accumulate when the server is a container's init process. The
// returned function stops the reaper.
func StartReaper(log *slog.Logger) func() {
	sigs := make(chan os.Signal, 16)
	signal.Notify(sigs, syscall.SIGCHLD)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigs:
				for {
					var status syscall.WaitStatus
					pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG, nil)
					if pid <= 0 || err != nil {
						break
					}
					log.Debug("reaped child process", "pid", pid, "status", status.ExitStatus())
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// ForwardSignal relays a termination signal to every descendant process.
// Kill(-1) reaches all processes in the container except init itself.
func ForwardSignal(sig os.Signal, log *slog.Logger) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	if err := syscall.Kill(-1, s); err != nil && err != syscall.ESRCH {
		log.Warn("failed to forward signal to descendants", "signal", s.String(), "error", err)
	}
}
