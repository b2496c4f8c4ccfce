//go:build windows

package winsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

// eventLogHook sends log entries to the Windows Event Log, mapping logrus
// levels onto the three event types.
type eventLogHook struct {
	elog      *eventlog.Log
	formatter logrus.Formatter
}

func (h *eventLogHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *eventLogHook) Fire(entry *logrus.Entry) error {
	msg, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return h.elog.Error(3, string(msg))
	case logrus.WarnLevel:
		return h.elog.Warning(2, string(msg))
	default:
		return h.elog.Info(1, string(msg))
	}
}

// SetupEventLog routes log to the named event log source. Event log
// entries carry their own timestamps. On failure log keeps writing to
// stderr.
func SetupEventLog(name string, log *logrus.Logger) {
	elog, err := eventlog.Open(name)
	if err != nil {
		log.WithError(err).Warn("Could not open event log; logging to stderr")
		return
	}
	log.AddHook(&eventLogHook{
		elog:      elog,
		formatter: &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true},
	})
	log.SetOutput(io.Discard)
}

// IsWindowsService reports whether the process is running as a
// Windows service.
func IsWindowsService() bool {
	ok, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return ok
}

const shutdownTimeout = 30 * time.Second

// serviceHandler implements svc.Handler for a long-running function.
type serviceHandler struct {
	name string
	log  logrus.FieldLogger
	run  func(ctx context.Context) error
}

func (h *serviceHandler) Execute(_ []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.run(ctx) }()

	status <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}
	for {
		select {
		case err := <-done:
			status <- svc.Status{State: svc.StopPending}
			return false, h.exitCode(err)
		case cr := <-req:
			if cr.Cmd == svc.Interrogate {
				status <- cr.CurrentStatus
				continue
			}
			if cr.Cmd != svc.Stop && cr.Cmd != svc.Shutdown {
				continue
			}
			status <- svc.Status{State: svc.StopPending}
			cancel()
			h.awaitShutdown(done)
			return false, 0
		}
	}
}

func (h *serviceHandler) exitCode(err error) uint32 {
	if err == nil {
		return 0
	}
	h.log.WithError(err).WithField("service", h.name).Error("Service exited with error")
	return 1
}

// awaitShutdown gives run up to shutdownTimeout to return after cancel.
func (h *serviceHandler) awaitShutdown(done <-chan error) {
	t := time.NewTimer(shutdownTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		h.log.WithField("service", h.name).Warn("Timed out waiting for graceful shutdown")
	}
}

// RunService runs the named Windows service, blocking until the
// service stops. The run function receives a context that is
// cancelled when the SCM requests a stop.
func RunService(name string, log logrus.FieldLogger, run func(ctx context.Context) error) error {
	return svc.Run(name, &serviceHandler{name: name, log: log.WithField("package", "winsvc"), run: run})
}

const (
	stopPollInterval = 500 * time.Millisecond
	stopPollAttempts = 10
	recoveryReset    = 24 * time.Hour
)

// Install registers s with the Service Control Manager to start
// automatically, restarting it after the first two failures, and creates
// its event log source.
func Install(s Service, exePath string, log logrus.FieldLogger) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	if existing, err := m.OpenService(s.Name); err == nil {
		existing.Close()
		return fmt.Errorf("service %s already exists", s.Name)
	}

	created, err := m.CreateService(s.Name, exePath, mgr.Config{
		DisplayName: s.DisplayName,
		Description: s.Description,
		StartType:   mgr.StartAutomatic,
	}, s.Args...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer created.Close()

	err = created.SetRecoveryActions([]mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 10 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
		{Type: mgr.NoAction},
	}, uint32(recoveryReset.Seconds()))
	if err != nil {
		log.WithError(err).Warn("Could not set service recovery actions")
	}

	if err := eventlog.InstallAsEventCreate(s.Name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		log.WithError(err).Warn("Could not install event log source")
	}

	log.WithField("service", s.Name).Info("Service installed")
	return nil
}

// Uninstall stops the named service if it is running, then removes it and
// its event log source.
func Uninstall(name string, log logrus.FieldLogger) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	stopAndWait(s, log)

	if err := s.Delete(); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if err := eventlog.Remove(name); err != nil {
		log.WithError(err).Debug("Event log source not removed")
	}

	log.WithField("service", name).Info("Service uninstalled")
	return nil
}

// stopAndWait asks a running service to stop and polls until it reports
// Stopped or stopPollAttempts is exhausted.
func stopAndWait(s *mgr.Service, log logrus.FieldLogger) {
	st, err := s.Query()
	if err != nil || st.State == svc.Stopped {
		return
	}
	if _, err := s.Control(svc.Stop); err != nil {
		log.WithError(err).Warn("Stop request rejected; deleting anyway")
		return
	}
	for i := 0; i < stopPollAttempts; i++ {
		time.Sleep(stopPollInterval)
		if st, err = s.Query(); err != nil || st.State == svc.Stopped {
			return
		}
	}
	log.WithField("service", s.Name).Warn("Service still running after stop request")
}

// ExePath returns the path to the currently running executable.
func ExePath() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", errors.New("cannot determine executable path")
	}
	return p, nil
}
