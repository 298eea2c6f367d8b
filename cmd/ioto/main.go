// Command ioto is a minimal demonstration agent: it brings up the
// runtime core, spawns a fiber that logs a heartbeat on a repeating
// timer, and serves events until interrupted.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	r "github.com/embedthis/r"
)

func main() {
	logSpec := flag.String("log", "stderr:info,error:all", "log destination:types:sources spec")
	appName := flag.String("name", "ioto", "application name for log templates")
	flag.Parse()

	rt, err := r.Init(heartbeat, nil,
		r.WithLogSpec(*logSpec),
		r.WithAppName(*appName),
	)
	if err != nil {
		os.Stderr.WriteString("ioto: init: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer rt.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		rt.GracefulStop()
	}()

	if err := rt.ServiceEvents(); err != nil {
		os.Stderr.WriteString("ioto: serviceEvents: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// heartbeat runs as the entry fiber: it logs once on startup, then
// re-arms itself every second via a fire-and-forget timer, until the
// runtime starts shutting down. It uses AllocEvent with EventFast rather
// than StartEvent, since the callback never suspends and isn't resuming
// any particular fiber's paused continuation — EventRegular's "resume
// the bound fiber" dispatch is for a fiber waiting on this specific
// timer to wake it, which doesn't apply here.
func heartbeat(rt *r.Runtime, arg any) any {
	rt.Log.Info("ioto", "agent started")

	var tick r.EventProc
	tick = func(any) {
		rt.Log.Info("ioto", "heartbeat")
		if rt.IsRunning() {
			rt.AllocEvent(nil, tick, nil, 1000, r.EventFast)
		}
	}
	rt.AllocEvent(nil, tick, nil, 1000, r.EventFast)
	return nil
}
