// Package service starts and watches local development services.
//
// The Launcher owns an ordered list of service configs and a registry with
// one *Handle slot per service. Services are started one after another;
// each start is a preflight (executable on PATH, working directory exists),
// a spawn and a short crash window. A service failing any step leaves a nil
// slot and a printed diagnostic; it never stops the run.
//
// Runner is a thin, opinionated wrapper around os/exec:
//   - starts the process in its own process group (Unix) or console (Windows)
//   - merges stdout and stderr into a bounded Capture
//   - waits for the process in a goroutine and closes Done on exit
//
// Data flow:
//
//	Launcher                 Handle{name}            Runner{cmd}
//	    |                        |                       |
//	StartAll -> StartService --->| NewRunner/Start ----->| os/exec.Start + Wait() in goroutine
//	    |  crash window          |                       | output copied into Capture
//	    |<------ nil | handle ---|                       |
//	Monitor: Poll every tick ----| Alive()? ------------>| Done closed on exit
//	Shutdown: stop(grace) ------>| Terminate / Kill ---->| signal process group
//
// Invariants:
//   - len(registry) == len(services) and slot i belongs to service i.
//   - An exit is reported at most once per handle.
//   - Dead services are never restarted.
//   - Shutdown runs once; later calls are no-ops.
package service
